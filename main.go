package main

import (
	"fmt"
	"os"

	"salescrm/internal/app"
)

// @title                       Lead Pipeline API
// @version                     1.0
// @description                 Kanban board service between the CRM UI and the CRM REST API.
// @BasePath                    /
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
func main() {
	if err := app.Run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
