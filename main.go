package main

import (
	"os"

	"marketapi/internal/server"
)

func main() {
	mode := "api"
	if len(os.Args) > 1 {
		mode = os.Args[1]
	}
	switch mode {
	case "jobs":
		server.SetLogger("market-jobs.log")
		server.JobsInit()
	default:
		server.SetLogger("market-api.log")
		server.ApiInit()
	}
}
