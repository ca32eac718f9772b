package main

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newRootCmd() *cobra.Command {
	v := newViper()
	var configFile string

	root := &cobra.Command{
		Use:   "kanbanchat",
		Short: "Kanban board AI chat: streaming relay server and terminal client",
		Long: `kanbanchat relays chat requests to an OpenAI-compatible gateway, turning create_task
tool calls into tasks on the board, and provides a terminal chat client for the same server.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configFile, "config", "", "config file (yaml)")
	root.PersistentFlags().BoolP("verbose", "v", false, "enable debug logging")
	_ = v.BindPFlag("verbose", root.PersistentFlags().Lookup("verbose"))

	load := func() (settings, error) {
		s, err := loadSettings(v, configFile)
		if err != nil {
			return settings{}, err
		}
		if s.Verbose {
			logrus.SetLevel(logrus.DebugLevel)
		}
		return s, nil
	}

	root.AddCommand(newServeCmd(v, load))
	root.AddCommand(newChatCmd(v, load))
	return root
}

func bindFlag(v *viper.Viper, cmd *cobra.Command, key, flag string) {
	_ = v.BindPFlag(key, cmd.Flags().Lookup(flag))
}
