package main

import "schoolhub/internal/app"

// @title        schoolhub API
// @version      1.0
// @description  Student management with group chat.
// @BasePath     /
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
func main() {
	app.Run()
}
