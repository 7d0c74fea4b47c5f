package cmd

import (
	"fmt"
	"io"
	"path/filepath"
	"strconv"

	"github.com/nektos/stackscope/pkg/model"
)

func printList(w io.Writer, programs []*model.Program) error {
	type lineInfoDef struct {
		name        string
		file        string
		statements  string
		description string
	}
	lineInfos := []lineInfoDef{}

	header := lineInfoDef{
		name:        "Name",
		file:        "File",
		statements:  "Statements",
		description: "Description",
	}

	nameMaxWidth := len(header.name)
	fileMaxWidth := len(header.file)
	statementsMaxWidth := len(header.statements)

	for _, p := range programs {
		line := lineInfoDef{
			name:        p.Name,
			file:        filepath.Base(p.File),
			statements:  strconv.Itoa(len(p.Body)),
			description: p.Description,
		}
		lineInfos = append(lineInfos, line)
		if nameMaxWidth < len(line.name) {
			nameMaxWidth = len(line.name)
		}
		if fileMaxWidth < len(line.file) {
			fileMaxWidth = len(line.file)
		}
		if statementsMaxWidth < len(line.statements) {
			statementsMaxWidth = len(line.statements)
		}
	}

	nameMaxWidth += 2
	fileMaxWidth += 2
	statementsMaxWidth += 2

	fmt.Fprintf(w, "%*s%*s%*s%s\n", -nameMaxWidth, header.name, -fileMaxWidth, header.file, -statementsMaxWidth, header.statements, header.description)
	for _, line := range lineInfos {
		fmt.Fprintf(w, "%*s%*s%*s%s\n", -nameMaxWidth, line.name, -fileMaxWidth, line.file, -statementsMaxWidth, line.statements, line.description)
	}
	return nil
}
