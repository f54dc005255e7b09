package main

import (
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"strings"
	"syscall"

	"github.com/olebedev/emitter"
	"github.com/sirupsen/logrus"

	"github.com/openconsole/openconsole/internal/api"
	"github.com/openconsole/openconsole/internal/config"
	"github.com/openconsole/openconsole/internal/console"
	"github.com/openconsole/openconsole/internal/crypto"
	"github.com/openconsole/openconsole/internal/store"
	"github.com/openconsole/openconsole/internal/supervisor"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("failed to load config: %v", err)
	}

	log := logrus.New()
	if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		log.SetLevel(level)
	}

	files, err := store.NewFiles(cfg.DataDir)
	if err != nil {
		log.Fatalf("failed to open data dir: %v", err)
	}

	// the journal is diagnostics only; run without it if it won't open
	journal, err := store.OpenJournal(cfg.DataDir)
	if err != nil {
		log.WithError(err).Warn("session journal disabled")
		journal = nil
	} else {
		defer journal.Close()
	}

	events := emitter.New(64)
	sup := supervisor.New(log, cfg.PollInterval)

	var keys *crypto.KeyPair
	if cfg.EncryptedInput {
		keys, err = crypto.GenerateKeyPair()
		if err != nil {
			log.Fatalf("failed to generate input keypair: %v", err)
		}
	}

	var passwords *console.PasswordManager
	if cfg.AskPass != "" {
		passwords = console.NewPasswordManager(log, nil, askpassPrompter(log, cfg.AskPass))
	}

	registry, err := console.NewRegistry(log, sup, files, events, console.RegistryOptions{
		MaxOutputLines: cfg.MaxOutputLines,
		Journal:        journal,
		Passwords:      passwords,
	})
	if err != nil {
		log.Fatalf("failed to build session registry: %v", err)
	}
	registry.Load()

	srv := api.NewServer(log, registry, events, api.ServerOpts{
		APIKey:         cfg.APIKey,
		EncryptedInput: cfg.EncryptedInput,
		Keys:           keys,
	})

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Info("suspending sessions and shutting down")
		registry.Suspend()
		srv.Close()
	}()

	log.Infof("openconsole listening on :%d (data dir %s)", cfg.Port, cfg.DataDir)
	if err := srv.Start(fmt.Sprintf(":%d", cfg.Port)); err != nil && err != http.ErrServerClosed {
		log.Fatalf("server error: %v", err)
	}
}

// askpassPrompter answers password prompts by running an external program
// with the prompt text as its argument, ssh-askpass style. The external
// program never gets a remember option; retention stays per-process.
func askpassPrompter(log *logrus.Logger, program string) console.PasswordPrompter {
	return func(prompt string, showRemember bool) (string, bool, bool) {
		out, err := exec.Command(program, prompt).Output()
		if err != nil {
			log.WithError(err).Warn("askpass program failed")
			return "", false, false
		}
		return strings.TrimRight(string(out), "\r\n"), false, true
	}
}
