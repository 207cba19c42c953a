package diag

import (
	"fmt"
)

// Code is a compact numeric diagnostic identifier with a stable string form.
type Code uint16

const (
	// Неизвестная ошибка
	UnknownCode Code = 0

	// Синтаксис (внешний парсер)
	SynParseFailure Code = 2001

	// Конфигурация
	CfgInvalidModifierKind Code = 4001
	CfgInvalidValue        Code = 4002
	CfgManifest            Code = 4003

	// Сборка текста
	EncInvalidUTF8      Code = 5001
	EncOverlappingEdits Code = 5002

	// Ввод-вывод
	IOReadFailure  Code = 6001
	IOWriteFailure Code = 6002
)

var codeDescription = map[Code]string{
	UnknownCode:            "Unknown error",
	SynParseFailure:        "Source could not be parsed",
	CfgInvalidModifierKind: "Unrecognized modifier kind",
	CfgInvalidValue:        "Invalid configuration value",
	CfgManifest:            "Invalid project configuration file",
	EncInvalidUTF8:         "Rewritten text is not valid UTF-8",
	EncOverlappingEdits:    "Rewrite edits overlap",
	IOReadFailure:          "Failed to read input",
	IOWriteFailure:         "Failed to write output",
}

// ID returns the stable textual identifier, e.g. "SYN2001".
func (c Code) ID() string {
	switch ic := int(c); {
	case ic >= 2000 && ic < 3000:
		return fmt.Sprintf("SYN%04d", ic)
	case ic >= 4000 && ic < 5000:
		return fmt.Sprintf("CFG%04d", ic)
	case ic >= 5000 && ic < 6000:
		return fmt.Sprintf("ENC%04d", ic)
	case ic >= 6000 && ic < 7000:
		return fmt.Sprintf("IO%04d", ic)
	}
	return "E0000"
}

func (c Code) Title() string {
	desc, ok := codeDescription[c]
	if !ok {
		return codeDescription[UnknownCode]
	}
	return desc
}

func (c Code) String() string {
	return fmt.Sprintf("[%s]: %s", c.ID(), c.Title())
}
