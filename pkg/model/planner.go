package model

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// IsProgramFile reports whether name has a program file extension
func IsProgramFile(name string) bool {
	switch filepath.Ext(name) {
	case ".yml", ".yaml", ".json":
		return true
	}
	return false
}

// ReadProgramFile reads and validates one program file. A program without
// a name is named after its file.
func ReadProgramFile(path string) (*Program, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	p, err := ReadProgram(f)
	if err != nil {
		return nil, errors.Wrapf(err, "%s", path)
	}
	p.File = path
	if p.Name == "" {
		p.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return p, nil
}

// LoadPrograms loads a single program file, or every program file in a
// directory sorted by file name
func LoadPrograms(path string) ([]*Program, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return nil, err
	}

	if !fi.IsDir() {
		log.Debugf("Loading program '%s'", path)
		p, err := ReadProgramFile(path)
		if err != nil {
			return nil, err
		}
		return []*Program{p}, nil
	}

	log.Debugf("Loading programs from '%s'", path)
	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, err
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})

	programs := make([]*Program, 0, len(entries))
	seen := map[string]string{}
	for _, e := range entries {
		if e.IsDir() || !IsProgramFile(e.Name()) {
			continue
		}
		p, err := ReadProgramFile(filepath.Join(path, e.Name()))
		if err != nil {
			return nil, err
		}
		if other, ok := seen[p.Name]; ok {
			return nil, errors.Errorf("program %q is defined in both %s and %s", p.Name, other, p.File)
		}
		seen[p.Name] = p.File
		programs = append(programs, p)
	}
	return programs, nil
}

// FilterPrograms keeps the programs whose name is in names, in the order
// they were loaded. No names keeps everything.
func FilterPrograms(programs []*Program, names ...string) ([]*Program, error) {
	if len(names) == 0 {
		return programs, nil
	}
	byName := map[string]*Program{}
	for _, p := range programs {
		byName[p.Name] = p
	}
	wanted := map[string]bool{}
	for _, n := range names {
		if _, ok := byName[n]; !ok {
			return nil, errors.Errorf("no program named %q", n)
		}
		wanted[n] = true
	}
	rtn := make([]*Program, 0, len(names))
	for _, p := range programs {
		if wanted[p.Name] {
			rtn = append(rtn, p)
		}
	}
	return rtn, nil
}

// ProgramNames lists the names of programs
func ProgramNames(programs []*Program) []string {
	rtn := make([]string, 0, len(programs))
	for _, p := range programs {
		rtn = append(rtn, p.Name)
	}
	return rtn
}
