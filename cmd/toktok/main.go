/*
File Name:  main.go
Package:    main

toktok is the CLI entry point: it loads a signed configuration, verifies it
against a keyfile, binds the network described by that configuration, and
runs the worker pipeline until interrupted.
*/

package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/Azoozya/toktok/config"
	"github.com/Azoozya/toktok/keypair"
	"github.com/Azoozya/toktok/webapi"
	"github.com/Azoozya/toktok/workers"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var log = logrus.New()

var rootCmd = &cobra.Command{
	Use:   "toktok",
	Short: "peer-to-peer UDP overlay node",
	RunE:  runServe,
}

var (
	configFile    string
	keyFile       string
	passphrase    string
	executionMode string
	apiListen     string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "load a configuration and run the node",
	RunE:  runServe,
}

var genkeyCmd = &cobra.Command{
	Use:   "genkey",
	Short: "generate a new OpenSSH-format identity keypair",
	RunE:  runGenkey,
}

func init() {
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	rootCmd.PersistentFlags().StringVarP(&configFile, "config-file", "c", "toktok.config", "Configuration file to use")
	rootCmd.PersistentFlags().StringVarP(&keyFile, "keyfile", "k", "toktok", "OpenSSH format keyfile")
	rootCmd.PersistentFlags().StringVar(&passphrase, "passphrase", "", "Passphrase for an encrypted keyfile")
	rootCmd.PersistentFlags().StringVarP(&executionMode, "execution-mode", "e", "", "Execution mode: [C/s], a leading 's' means server; it does not change the role the config file sets")

	serveCmd.Flags().StringVar(&apiListen, "api-listen", "", "Address to serve the local status API on, e.g. 127.0.0.1:8088. Disabled if empty")

	rootCmd.AddCommand(serveCmd, genkeyCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatal(err)
	}
}

func isForcedServer() bool {
	if executionMode == "" {
		return false
	}
	return strings.HasPrefix(strings.ToLower(executionMode), "s")
}

func runGenkey(cmd *cobra.Command, args []string) error {
	kp, err := keypair.Generate()
	if err != nil {
		return err
	}

	raw, err := kp.IntoOpenSSH([]byte(passphrase))
	if err != nil {
		return err
	}
	if err := os.WriteFile(keyFile, raw, 0o600); err != nil {
		return err
	}
	if err := os.WriteFile(keyFile+".pub", kp.IntoOpenSSHPublic(), 0o644); err != nil {
		return err
	}

	log.WithField("keyfile", keyFile).Info("generated keypair")
	return nil
}

func runServe(cmd *cobra.Command, args []string) error {
	_ = isForcedServer() // execution-mode has no effect here; config.Server/.Gateway already define the node's role.

	keyData, err := os.ReadFile(keyFile)
	if err != nil {
		return err
	}
	kp, err := keypair.FromOpenSSH(keyData, []byte(passphrase))
	if err != nil {
		return err
	}

	cfg, err := config.FromFile(configFile)
	if err != nil {
		return err
	}
	if err := cfg.Verify(kp); err != nil {
		return err
	}

	net, err := cfg.IntoNetwork()
	if err != nil {
		return err
	}
	defer net.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sup := workers.Start(ctx, net, true, nil, log.WithField("node", net.LocalAddr().String()))

	if apiListen != "" {
		api := webapi.New(net, nil, log.WithField("component", "webapi"))
		go func() {
			if err := api.Serve(apiListen); err != nil {
				log.WithError(err).Warn("webapi server stopped")
			}
		}()
	}

	log.WithField("addr", net.LocalAddr().String()).Info("toktok node started")
	<-ctx.Done()
	log.Info("shutting down")

	sup.Shutdown()
	sup.Wait()
	return nil
}
