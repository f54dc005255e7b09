package console

import (
	"regexp"
	"sync"

	"github.com/sirupsen/logrus"
)

// PasswordPrompter obtains a password interactively. It may be user-facing
// and slow; it runs on the session's driver goroutine but off the critical
// output path. ok=false means the user cancelled.
type PasswordPrompter func(prompt string, showRemember bool) (password string, remember bool, ok bool)

// cachedPassword lives until its owning process exits: always purged on
// failure, purged on success unless remembered.
type cachedPassword struct {
	handle   string
	prompt   string
	password string
	remember bool
}

// PasswordManager intercepts password prompts across sessions and answers
// them from a short-lived cache, falling back to the interactive prompter.
type PasswordManager struct {
	log      *logrus.Entry
	pattern  *regexp.Regexp
	prompter PasswordPrompter

	mu        sync.Mutex
	passwords []cachedPassword
}

// NewPasswordManager builds a manager answering prompts that match pattern.
// A nil pattern accepts anything shaped like a prompt.
func NewPasswordManager(log *logrus.Logger, pattern *regexp.Regexp, prompter PasswordPrompter) *PasswordManager {
	if pattern == nil {
		pattern = promptPattern
	}
	return &PasswordManager{
		log:      log.WithField("component", "passwords"),
		pattern:  pattern,
		prompter: prompter,
	}
}

// Attach installs the manager as the session's prompt handler and
// subscribes to its exit notification for cache eviction.
func (pm *PasswordManager) Attach(s *Session, showRemember bool) {
	handle := s.Handle()
	s.SetPromptHandler(func(_, prompt string) (Input, bool) {
		return pm.HandlePrompt(handle, prompt, showRemember)
	})
	s.SubscribeExit(pm.OnExit)
}

// HandlePrompt answers a prompt from cache or via the interactive
// prompter. Prompts that do not match the pattern are declined, letting
// the normal prompt event path take over. An empty answered input signals
// user cancellation to the session.
func (pm *PasswordManager) HandlePrompt(handle, prompt string, showRemember bool) (Input, bool) {
	if !pm.pattern.MatchString(prompt) {
		return Input{}, false
	}

	pm.mu.Lock()
	for _, cached := range pm.passwords {
		if cached.prompt == prompt {
			pm.mu.Unlock()
			return Input{Text: cached.password + "\n"}, true
		}
	}
	pm.mu.Unlock()

	password, remember, ok := pm.prompter(prompt, showRemember)
	if !ok {
		// user cancelled; the session terminates its child
		return Input{}, true
	}

	// cache regardless of remember; the flag only controls whether the
	// entry survives a clean exit
	pm.mu.Lock()
	pm.passwords = append(pm.passwords, cachedPassword{
		handle:   handle,
		prompt:   prompt,
		password: password,
		remember: remember,
	})
	pm.mu.Unlock()

	return Input{Text: password + "\n"}, true
}

// OnExit evicts cache entries owned by handle: all of them when the
// process failed, only the non-remembered ones on a clean exit.
func (pm *PasswordManager) OnExit(handle string, exitCode int) {
	pm.mu.Lock()
	defer pm.mu.Unlock()

	kept := pm.passwords[:0]
	for _, cached := range pm.passwords {
		purge := cached.handle == handle &&
			(exitCode != 0 || !cached.remember)
		if !purge {
			kept = append(kept, cached)
		}
	}
	pm.passwords = kept
}
