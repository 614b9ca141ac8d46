// Copyright 2026 The dsim Authors
// Licensed under the MIT license. See license text in the LICENSE file.

package vcd

import (
	"io"
	"strconv"
)

// A SaveFile writes a viewer save file referencing a value-change-dump
// log: the dump file's path and size, the opened hierarchy tree, and
// one line per traced variable. Write errors are sticky; check Err once
// done.
//
type SaveFile struct {
	w   io.Writer
	err error
}

// NewSaveFile returns a SaveFile emitting to out.
//
func NewSaveFile(out io.Writer) *SaveFile {
	return &SaveFile{w: out}
}

// Comment writes a comment line.
//
func (s *SaveFile) Comment(text string) {
	s.line("[*] " + text)
}

// Dumpfile records the path of the log file the save file refers to.
//
func (s *SaveFile) Dumpfile(path string) {
	s.line("[dumpfile] " + strconv.Quote(path))
}

// DumpfileSize records the byte size of the log file.
//
func (s *SaveFile) DumpfileSize(n int64) {
	s.line("[dumpfile_size] " + strconv.FormatInt(n, 10))
}

// TreeOpen marks a hierarchy scope as opened in the viewer.
//
func (s *SaveFile) TreeOpen(path string) {
	s.line("[treeopen] " + path)
}

// Trace adds a variable to the displayed trace list.
//
func (s *SaveFile) Trace(name string) {
	s.line(name)
}

// Err returns the first write error, if any.
//
func (s *SaveFile) Err() error { return s.err }

func (s *SaveFile) line(l string) {
	if s.err != nil {
		return
	}
	_, s.err = io.WriteString(s.w, l+"\n")
}
