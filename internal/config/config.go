// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"unicode"

	"github.com/subosito/gotenv"
)

// Defaults for settings a document may leave out.
const (
	DefaultLogLevel   = "warn"
	DefaultTTSBaseURL = "https://api.elevenlabs.io"
	DefaultTTSModel   = "eleven_multilingual_v2"

	// EnvPrefix prefixes every environment override.
	EnvPrefix = "PERSONACHAT_"
	// EnvKeyPrefix prefixes credential overrides: PERSONACHAT_KEY_<NAME>.
	EnvKeyPrefix = EnvPrefix + "KEY_"
	// EnvConfigDir selects the config directory.
	EnvConfigDir = EnvPrefix + "CONFIG_DIR"

	dirName = ".personachat"
)

// Bundle holds every document of a config directory, decoded but not yet
// cross-checked.
type Bundle struct {
	Dir string

	Settings        Settings
	Providers       map[string]Provider
	InstructionSets map[string]InstructionSet
	Experts         map[string]Persona
	Users           map[string]Persona
	Contexts        map[string]Context
	Credentials     map[string]Credential

	// Paths maps each document base name to the file it was read from.
	Paths map[string]string

	envErrs ValidationErrors
}

// Load reads all seven documents from dir. Every missing or invalid document
// is reported; the returned error matches *ConfigError.
func Load(dir string) (*Bundle, error) {
	b := &Bundle{Dir: dir, Paths: make(map[string]string, len(Documents))}

	var errs []error
	for _, base := range Documents {
		path, err := FindDocument(dir, base)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		b.Paths[base] = path
		if err := b.decode(base, path); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	fillDefaults(&b.Settings)
	return b, nil
}

func (b *Bundle) decode(base, path string) error {
	var err error
	switch base {
	case DocConfig:
		err = decodeFile(path, &b.Settings)
	case DocLLMAPIs:
		b.Providers, err = LoadCatalog[Provider](path)
	case DocInstructionSets:
		b.InstructionSets, err = LoadCatalog[InstructionSet](path)
	case DocExperts:
		b.Experts, err = LoadCatalog[Persona](path)
	case DocUsers:
		b.Users, err = LoadCatalog[Persona](path)
	case DocContexts:
		b.Contexts, err = LoadCatalog[Context](path)
	case DocAPIKeys:
		b.Credentials, err = LoadCatalog[Credential](path)
	default:
		err = &ConfigError{Path: path, Reason: fmt.Sprintf("unknown document %q", base)}
	}
	return err
}

// fillDefaults fills in settings left empty by the document.
func fillDefaults(s *Settings) {
	if s.LogLevel == "" {
		s.LogLevel = DefaultLogLevel
	}
	if s.TTSBaseURL == "" {
		s.TTSBaseURL = DefaultTTSBaseURL
	}
	if s.TTSModel == "" {
		s.TTSModel = DefaultTTSModel
	}
	if s.TTSVoices == nil {
		s.TTSVoices = map[string]Voice{}
	}
}

// =============================================================================
// OVERRIDES
// =============================================================================

// Overrides are per-run selections from command-line flags. Zero values leave
// the document setting in place.
type Overrides struct {
	LLMAPI         string
	InstructionSet string
	Expert         string
	User           string
	Context        string
	HistoryLength  *int
	UseTTS         *bool
	LogLevel       string
}

// Apply replaces settings with any non-zero override.
func (b *Bundle) Apply(o Overrides) {
	s := &b.Settings
	setString(&s.LLMAPI, o.LLMAPI)
	setString(&s.InstructionSet, o.InstructionSet)
	setString(&s.Expert, o.Expert)
	setString(&s.User, o.User)
	setString(&s.Context, o.Context)
	setString(&s.LogLevel, o.LogLevel)
	if o.HistoryLength != nil {
		s.HistoryLength = *o.HistoryLength
	}
	if o.UseTTS != nil {
		s.UseTTS = *o.UseTTS
	}
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

// ApplyEnvOverrides applies PERSONACHAT_* environment variables. Values that
// cannot be parsed are reported by Resolve.
func (b *Bundle) ApplyEnvOverrides() {
	s := &b.Settings

	// PERSONACHAT_LLM_API, _INSTRUCTION_SET, _EXPERT, _USER, _CONTEXT, _LOG_LEVEL
	setString(&s.LLMAPI, os.Getenv(EnvPrefix+"LLM_API"))
	setString(&s.InstructionSet, os.Getenv(EnvPrefix+"INSTRUCTION_SET"))
	setString(&s.Expert, os.Getenv(EnvPrefix+"EXPERT"))
	setString(&s.User, os.Getenv(EnvPrefix+"USER"))
	setString(&s.Context, os.Getenv(EnvPrefix+"CONTEXT"))
	setString(&s.LogLevel, os.Getenv(EnvPrefix+"LOG_LEVEL"))

	// PERSONACHAT_HISTORY_LENGTH
	if v := os.Getenv(EnvPrefix + "HISTORY_LENGTH"); v != "" {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			b.envErrs.add(EnvPrefix+"HISTORY_LENGTH", "not an integer: %q", v)
		} else {
			s.HistoryLength = n
		}
	}

	// PERSONACHAT_USE_TTS
	if v := os.Getenv(EnvPrefix + "USE_TTS"); v != "" {
		on, err := parseBool(v)
		if err != nil {
			b.envErrs.add(EnvPrefix+"USE_TTS", "not a boolean: %q", v)
		} else {
			s.UseTTS = on
		}
	}

	// PERSONACHAT_KEY_<NAME>
	if b.Credentials == nil {
		b.Credentials = map[string]Credential{}
	}
	for name := range b.Credentials {
		if v := os.Getenv(CredentialEnvVar(name)); v != "" {
			b.Credentials[name] = Credential{Key: v}
		}
	}
	for _, name := range []string{b.Settings.TTSAPIKey, b.Providers[b.Settings.LLMAPI].APIKey} {
		if name == "" {
			continue
		}
		if _, ok := b.Credentials[name]; ok {
			continue
		}
		if v := os.Getenv(CredentialEnvVar(name)); v != "" {
			b.Credentials[name] = Credential{Key: v}
		}
	}
}

// CredentialEnvVar returns the environment variable that overrides the
// credential called name.
func CredentialEnvVar(name string) string {
	var sb strings.Builder
	sb.WriteString(EnvKeyPrefix)
	for _, r := range name {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			sb.WriteRune(unicode.ToUpper(r))
		} else {
			sb.WriteByte('_')
		}
	}
	return sb.String()
}

func parseBool(v string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "on":
		return true, nil
	case "0", "false", "no", "off":
		return false, nil
	}
	return false, fmt.Errorf("invalid boolean %q", v)
}

// LoadDotEnv loads .env from the working directory and from dir. Variables
// already set in the environment are never overridden. Missing files are
// ignored.
func LoadDotEnv(dir string) error {
	paths := []string{".env"}
	if dir != "" {
		if p := filepath.Join(dir, ".env"); filepath.Clean(p) != filepath.Clean(".env") {
			paths = append(paths, p)
		}
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			continue
		}
		if err := gotenv.Load(p); err != nil {
			return &ConfigError{Path: p, Reason: "invalid .env file", Err: err}
		}
	}
	return nil
}

// =============================================================================
// DIRECTORY DISCOVERY
// =============================================================================

// DefaultDir returns ~/.personachat.
func DefaultDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, dirName), nil
}

// FindDir picks the config directory: explicit, then $PERSONACHAT_CONFIG_DIR,
// then the working directory if it holds a config document, then
// ~/.personachat.
func FindDir(explicit string) (string, error) {
	if explicit != "" {
		return explicit, nil
	}
	if env := os.Getenv(EnvConfigDir); env != "" {
		return env, nil
	}
	if _, err := FindDocument(".", DocConfig); err == nil {
		return ".", nil
	}
	return DefaultDir()
}
