package terminal

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Message keys for user-facing status lines.
const (
	MsgFoundPorts         = "msg.found_ports"
	MsgConnected          = "msg.connected"
	MsgConnectionFailed   = "msg.connection_failed"
	MsgDisconnected       = "msg.disconnected"
	MsgNotConnected       = "msg.not_connected"
	MsgSendFailed         = "msg.send_failed"
	MsgInvalidHex         = "msg.invalid_hex"
	MsgInvalidInput       = "msg.invalid_input"
	MsgError              = "msg.error"
	MsgClosedUnexpectedly = "msg.closed_unexpectedly"
	MsgLoggingEnabled     = "msg.logging_enabled"
	MsgLogSaved           = "msg.log_saved"
	MsgFormatChanged      = "msg.format_changed"
	MsgStatus             = "msg.status"
	MsgNoPortSelected     = "msg.no_port_selected"
)

// DefaultLanguage is used when no language is configured.
var DefaultLanguage = language.AmericanEnglish

var (
	supported = []language.Tag{DefaultLanguage, language.German}
	matcher   = language.NewMatcher(supported)
)

// NewPrinter returns a printer for the status line catalog in the closest supported language.
// Unsupported languages fall back to English.
func NewPrinter(tag language.Tag) *message.Printer {
	_, idx, _ := matcher.Match(tag)

	return message.NewPrinter(supported[idx])
}

//nolint:errcheck
func init() {
	// --- English (default) ---
	message.SetString(language.AmericanEnglish, MsgFoundPorts, "Found %d port(s)")
	message.SetString(language.AmericanEnglish, MsgConnected, "Connected to %s at %s baud")
	message.SetString(language.AmericanEnglish, MsgConnectionFailed, "Connection failed: %s")
	message.SetString(language.AmericanEnglish, MsgDisconnected, "Disconnected")
	message.SetString(language.AmericanEnglish, MsgNotConnected, "Not connected")
	message.SetString(language.AmericanEnglish, MsgSendFailed, "Send failed: %s")
	message.SetString(language.AmericanEnglish, MsgInvalidHex, "Invalid hex string (must be even length)")
	message.SetString(language.AmericanEnglish, MsgInvalidInput, "Invalid input: %s")
	message.SetString(language.AmericanEnglish, MsgError, "Error: %s")
	message.SetString(language.AmericanEnglish, MsgClosedUnexpectedly, "Port closed unexpectedly")
	message.SetString(language.AmericanEnglish, MsgLoggingEnabled, "File logging enabled")
	message.SetString(language.AmericanEnglish, MsgLogSaved, "Log saved to %s")
	message.SetString(language.AmericanEnglish, MsgFormatChanged, "Display format: %s")
	message.SetString(language.AmericanEnglish, MsgStatus, "%s | RX: %s | TX: %s | Uptime: %s")
	message.SetString(language.AmericanEnglish, MsgNoPortSelected, "No serial port selected")

	// --- German (de) ---
	message.SetString(language.German, MsgFoundPorts, "%d Port(s) gefunden")
	message.SetString(language.German, MsgConnected, "Verbunden mit %s bei %s Baud")
	message.SetString(language.German, MsgConnectionFailed, "Verbindung fehlgeschlagen: %s")
	message.SetString(language.German, MsgDisconnected, "Getrennt")
	message.SetString(language.German, MsgNotConnected, "Nicht verbunden")
	message.SetString(language.German, MsgSendFailed, "Senden fehlgeschlagen: %s")
	message.SetString(language.German, MsgInvalidHex, "Ungültige Hex-Zeichenfolge (Länge muss gerade sein)")
	message.SetString(language.German, MsgInvalidInput, "Ungültige Eingabe: %s")
	message.SetString(language.German, MsgError, "Fehler: %s")
	message.SetString(language.German, MsgClosedUnexpectedly, "Port unerwartet geschlossen")
	message.SetString(language.German, MsgLoggingEnabled, "Dateiprotokollierung aktiviert")
	message.SetString(language.German, MsgLogSaved, "Protokoll gespeichert in %s")
	message.SetString(language.German, MsgFormatChanged, "Anzeigeformat: %s")
	message.SetString(language.German, MsgStatus, "%s | RX: %s | TX: %s | Laufzeit: %s")
	message.SetString(language.German, MsgNoPortSelected, "Kein serieller Port ausgewählt")
}
