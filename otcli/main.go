package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/chzyer/readline"
	"github.com/npillmayer/otengine"
	"github.com/npillmayer/otengine/ot"
	"github.com/npillmayer/schuko/schukonf/testconfig"
	"github.com/npillmayer/schuko/tracing"
	"github.com/npillmayer/schuko/tracing/gologadapter"
	"github.com/npillmayer/schuko/tracing/trace2go"
	"github.com/pterm/pterm"
)

// tracer traces with key 'otengine'
func tracer() tracing.Trace {
	return tracing.Select("otengine")
}

func main() {
	initDisplay()

	// set up logging
	tracing.RegisterTraceAdapter("go", gologadapter.GetAdapter(), false)
	conf := testconfig.Conf{
		"tracing.adapter":        "go",
		"trace.otengine":         "Info",
		"trace.otengine.ot":      "Info",
		"trace.otengine.layout":  "Info",
		"trace.otengine.shape":   "Info",
	}
	if err := trace2go.ConfigureRoot(conf, "trace", trace2go.ReplaceTracers(true)); err != nil {
		fmt.Printf("error configuring tracing")
		os.Exit(1)
	}
	tracing.SetTraceSelector(trace2go.Selector())

	// command line flags
	tlevel := flag.String("trace", "Info", "Trace level [Debug|Info|Error]")
	fontname := flag.String("font", "", "Font to load")
	flag.Parse()
	tracer().SetTraceLevel(tracing.LevelError) // will set the correct level later
	pterm.Info.Println("Welcome to the OpenType lookup engine CLI")
	//
	// set up REPL
	repl, err := readline.New("otengine > ")
	if err != nil {
		tracer().Errorf(err.Error())
		os.Exit(3)
	}
	intp := &Intp{repl: repl}
	//
	// load font to use
	if err := intp.loadFont(*fontname); err != nil { // font name provided by flag
		tracer().Errorf(err.Error())
		os.Exit(4)
	}
	//
	// start receiving commands
	pterm.Info.Println("Quit with <ctrl>D")
	switch *tlevel {
	case "Debug":
		setTraceLevels(tracing.LevelDebug)
	case "Info":
		setTraceLevels(tracing.LevelInfo)
	case "Error":
		setTraceLevels(tracing.LevelError)
	default:
		tracer().Errorf("Invalid trace level: %s", *tlevel)
		os.Exit(5)
	}
	intp.REPL() // go into interactive mode
}

func setTraceLevels(level tracing.TraceLevel) {
	for _, key := range []string{"otengine", "otengine.ot", "otengine.layout", "otengine.shape"} {
		tracing.Select(key).SetTraceLevel(level)
	}
}

// We use pterm for moderately fancy output.
func initDisplay() {
	pterm.EnableDebugMessages()
	pterm.Info.Prefix = pterm.Prefix{
		Text:  " !  ",
		Style: pterm.NewStyle(pterm.BgCyan, pterm.FgBlack),
	}
	pterm.Error.Prefix = pterm.Prefix{
		Text:  " Error",
		Style: pterm.NewStyle(pterm.BgRed, pterm.FgBlack),
	}
}

// Intp is our interpreter object
type Intp struct {
	font *ot.Font
	repl *readline.Instance
}

func (intp *Intp) loadFont(fontname string) error {
	if fontname == "" {
		return fmt.Errorf("no font given; use -font <file>")
	}
	f, err := otengine.LoadOpenTypeFont(fontname)
	if err != nil {
		return err
	}
	otf, err := ot.Parse(f.Binary)
	if err != nil {
		return err
	}
	otf.Fontname = f.Fontname
	intp.font = otf
	pterm.Info.Printfln("loaded font %s (%s)", f.Fontname, fontname)
	return nil
}

// REPL starts interactive mode.
func (intp *Intp) REPL() {
	for {
		line, err := intp.repl.Readline()
		if err != nil { // io.EOF
			break
		}
		if line = strings.TrimSpace(line); line == "" {
			continue
		}
		if err := intp.execute(strings.Fields(line)); err != nil {
			tracer().Errorf(err.Error())
		}
	}
	pterm.Info.Println("Good bye!")
}

func (intp *Intp) execute(args []string) error {
	switch args[0] {
	case "help", "?":
		printHelp()
	case "tables":
		intp.printTables()
	case "scripts":
		intp.printScripts()
	case "features":
		if len(args) < 3 {
			return fmt.Errorf("usage: features <script> <language>")
		}
		return intp.printFeatures(args[1], args[2])
	case "pattern":
		if len(args) < 3 {
			return fmt.Errorf("usage: pattern <script> <language>")
		}
		return intp.printPattern(args[1], args[2])
	case "shape":
		if len(args) < 4 {
			return fmt.Errorf("usage: shape <script> <language> <glyph,glyph,...>")
		}
		return intp.shape(args[1], args[2], args[3])
	default:
		return fmt.Errorf("unknown command '%s'; try 'help'", args[0])
	}
	return nil
}
