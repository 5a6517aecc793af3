package main

import (
	"os"

	"github.com/sirupsen/logrus"
	"github.com/utkarsh5026/cubs/internal/cli"
)

func main() {
	ctx := cli.SetupSignalHandler()

	if err := cli.Execute(ctx); err != nil {
		logrus.WithError(err).Error("command failed")
		os.Exit(1)
	}
}
