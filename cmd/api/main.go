package main

import (
	"go.uber.org/fx"

	"github.com/lakedesk/lakedesk/internal/app"
)

func main() {
	fx.New(app.Module).Run()
}
