package main

import (
	"os"

	"storyreel/cmd"
)

// @title           StoryReel API
// @version         1.0
// @description     Turns a story topic into a narrated short video.
// @BasePath        /api/v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
