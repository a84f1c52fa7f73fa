// Package config loads and validates the node's JSON configuration file.
package config

import (
	"os"
	"strconv"

	"github.com/bytedance/sonic"

	"ampnode/errs"
)

// SetupMode selects ASL-compatibility behavior.
type SetupMode string

const (
	SetupModeDefault SetupMode = ""
	SetupModeASL     SetupMode = "0"
)

// Config is the validated, typed configuration snapshot. It is a plain
// value copied on reload; nothing holds a pointer into a live Config across
// a tick boundary.
type Config struct {
	Node      string
	IAXPort   int
	SetupMode SetupMode

	ASLAudioDevice string // "usb <query>" triggers USB sound-map resolution
	ASLCOSFrom     string // "usb" selects the HID-mapped COS source
	ASLCOSInvert   bool

	ASLTxMixASet  int
	ASLTxMixBSet  int
	ASLRxMixerSet int

	HTTPPort uint16
	Trace    bool
	Path     string
}

// rawConfig is the literal on-disk JSON shape: several fields arrive as
// numeric strings and must still be validated before conversion.
type rawConfig struct {
	Node           string `json:"node"`
	IAXPort        string `json:"iaxPort"`
	SetupMode      string `json:"setupMode"`
	ASLAudioDevice string `json:"aslAudioDevice"`
	ASLCOSFrom     string `json:"aslCosFrom"`
	ASLCOSInvert   bool   `json:"aslCosInvert"`
	ASLTxMixASet   string `json:"aslTxMixASet"`
	ASLTxMixBSet   string `json:"aslTxMixBSet"`
	ASLRxMixerSet  string `json:"aslRxMixerSet"`
}

const (
	mixerSetMin = 0
	mixerSetMax = 1000
)

// Load reads and validates the configuration file at path. A malformed or
// invalid file returns an errs.ConfigInvalid error; the caller is expected
// to log it and keep running on the previously loaded Config rather than
// treat it as fatal.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errs.New(errs.ConfigInvalid, err)
	}
	return ParseBytes(data, path)
}

// ParseBytes validates data as a configuration document, without touching
// disk. Callers that must validate an untrusted document before persisting
// it (e.g. an HTTP config-save handler) should call this directly instead
// of writing the document to path first.
func ParseBytes(data []byte, path string) (Config, error) {
	var raw rawConfig
	if err := sonic.Unmarshal(data, &raw); err != nil {
		return Config{}, errs.New(errs.ConfigInvalid, err)
	}

	cfg := Config{Path: path}

	cfg.Node = raw.Node

	if raw.IAXPort != "" {
		port, err := strconv.Atoi(raw.IAXPort)
		if err != nil {
			return Config{}, errs.Newf(errs.ConfigInvalid, "iaxPort must be a numeric string, got %q", raw.IAXPort)
		}
		cfg.IAXPort = port
	}

	switch SetupMode(raw.SetupMode) {
	case SetupModeDefault, SetupModeASL:
		cfg.SetupMode = SetupMode(raw.SetupMode)
	default:
		return Config{}, errs.Newf(errs.ConfigInvalid, "setupMode must be \"\" or \"0\", got %q", raw.SetupMode)
	}

	cfg.ASLAudioDevice = raw.ASLAudioDevice
	cfg.ASLCOSFrom = raw.ASLCOSFrom
	cfg.ASLCOSInvert = raw.ASLCOSInvert

	var err error
	cfg.ASLTxMixASet, err = parseMixerSet("aslTxMixASet", raw.ASLTxMixASet)
	if err != nil {
		return Config{}, err
	}
	cfg.ASLTxMixBSet, err = parseMixerSet("aslTxMixBSet", raw.ASLTxMixBSet)
	if err != nil {
		return Config{}, err
	}
	cfg.ASLRxMixerSet, err = parseMixerSet("aslRxMixerSet", raw.ASLRxMixerSet)
	if err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func parseMixerSet(field, value string) (int, error) {
	if value == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, errs.Newf(errs.ConfigInvalid, "%s must be a numeric string, got %q", field, value)
	}
	if n < mixerSetMin || n > mixerSetMax {
		return 0, errs.Newf(errs.ConfigInvalid, "%s must be within 0-1000, got %d", field, n)
	}
	return n, nil
}

// MarshalJSON-friendly snapshot for the HTTP status/config surface. Defined
// here rather than in httpapi so the JSON field names stay next to the
// Config fields they describe.
func (c Config) Snapshot() map[string]any {
	return map[string]any{
		"node":           c.Node,
		"iaxPort":        c.IAXPort,
		"setupMode":      string(c.SetupMode),
		"aslAudioDevice": c.ASLAudioDevice,
		"aslCosFrom":     c.ASLCOSFrom,
		"aslCosInvert":   c.ASLCOSInvert,
		"aslTxMixASet":   c.ASLTxMixASet,
		"aslTxMixBSet":   c.ASLTxMixBSet,
		"aslRxMixerSet":  c.ASLRxMixerSet,
		"httpPort":       c.HTTPPort,
		"trace":          c.Trace,
	}
}
