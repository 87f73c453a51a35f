package main

import "github.com/pterm/pterm"

func printHelp() {
	pterm.Info.Println("Commands")
	pterm.Println(`
  tables                                     list the font's tables
  scripts                                    list GSUB/GPOS scripts and language systems
  features <script> <language>               list features for a script/language pair
  pattern  <script> <language>               compile and print the feature pattern
  shape    <script> <language> <g1,g2,...>   apply the pattern to a glyph sequence
  help                                       this text

Script and language arguments are raw OpenType tags, e.g. 'arab URD';
tags shorter than 4 characters are padded with spaces. Glyph IDs are
decimal.`)
}
