package regtext

// Token constants for the Wine v2 textual registry format, named after the
// grammar elements they represent rather than their characters.
const (
	FileHeader           = "WINE REGISTRY Version 2"
	RelativeBasePrefix   = ";; All keys relative to "
	CommentPrefix        = ";"
	ArchWin32            = "#arch=win32"
	ArchWin64            = "#arch=win64"
	TimeHeaderPrefix     = "#time="
	ClassHeaderPrefix    = "#class="
	LinkHeader           = "#link"
	KeyOpenBracket       = "["
	KeyCloseBracket      = "]"
	DefaultValuePrefix   = "@"
	Quote                = '"'
	Backslash            = '\\'
	ValueAssignment      = "="
	ExpandSZPrefix       = "str(2):"
	MultiSZPrefix        = "str(7):"
	DwordPrefix          = "dword:"
	QwordPrefix          = "qword:"
	HexPrefix            = "hex:"
	HexBPrefix           = "hex(b):"
	HexTypedPrefixOpen   = "hex("
	HexTypedPrefixClose  = "):"
	LineWrapColumn       = 76
	LineWrapContinuation = "\\\n  "
)
