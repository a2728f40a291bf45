package main

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var log = logrus.New()

var rootCmd = &cobra.Command{
	Use:           "marketmind",
	Short:         "Lead scoring and campaign planning service",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// a missing .env is fine; the environment may already be set
		if err := godotenv.Load(); err == nil {
			log.Debug("loaded .env")
		}
	},
}

func init() {
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	rootCmd.AddCommand(serveCmd, scoreCmd, planCmd, healthCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.WithError(err).Error("marketmind failed")
		os.Exit(1)
	}
}
