package controller

// Editor-originated method names that are not part of go.lsp.dev/protocol.
// Standard LSP method names are referenced directly via protocol.MethodXxx
// constants elsewhere in this package.
const (
	MethodStart = "start"

	MethodCodeLensAction        = "vlc/codeLensAction"
	MethodResolveCodeLensAction = "vlc/resolveCodeLensAction"
	MethodResolveCodeAction     = "vlc/resolveCodeAction"
	MethodDiagnosticDetail      = "vlc/diagnosticDetail"
)

// Core-initiated calls to the editor. The editor implements these as
// side-effect-only notifications.
const (
	EditorShowMessage    = "vlc#show_message"
	EditorShowPreview    = "vlc#show_preview"
	EditorShowFloatWin   = "vlc#show_float_win"
	EditorShowLocations  = "vlc#show_locations"
	EditorSelection      = "vlc#selection"
	EditorSetQuickfix    = "vlc#set_quickfix"
	EditorSetSigns       = "vlc#set_signs"
	EditorSetVirtualText = "vlc#set_virtual_texts"
	EditorApplyEdit      = "vlc#apply_edit"
	EditorApplyEdits     = "vlc#apply_edits"
	EditorRegisterNCM2   = "vlc#register_ncm2"
	// EditorExecute runs a shell command in the editor's terminal, used by
	// the rust-analyzer.run/runSingle extension commands. It isn't part of
	// the standard vlc# set but is required for those handlers to do
	// anything observable.
	EditorExecute = "vlc#execute"
)

// MessageLevel mirrors the severity the editor's vlc#show_message expects.
type MessageLevel string

const (
	LevelInfo    MessageLevel = "info"
	LevelWarning MessageLevel = "warning"
	LevelError   MessageLevel = "error"
)
