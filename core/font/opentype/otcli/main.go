/*
Command otcli is an interactive inspector for font files.

Usage:

	otcli -font <path> [-size 10pt] [-lang de] [-trace Info]

Fonts may be OpenType/TrueType fonts or collections, or Type 1 fonts given by
their AFM file. Commands operating on font tables work for OpenType fonts only.
Type 'help' at the prompt for a list of commands.

# License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © Norbert Pillmayer <norbert@pillmayer.com>
*/
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/chzyer/readline"
	"github.com/npillmayer/fontloom/core/dimen"
	"github.com/npillmayer/fontloom/core/font"
	"github.com/npillmayer/fontloom/core/font/opentype"
	"github.com/npillmayer/fontloom/core/locate/resources"
	"github.com/npillmayer/schuko/schukonf/testconfig"
	"github.com/npillmayer/schuko/tracing"
	"github.com/npillmayer/schuko/tracing/gologadapter"
	"github.com/npillmayer/schuko/tracing/trace2go"
	"github.com/pterm/pterm"
	"golang.org/x/text/language"
)

// tracer traces with key 'fontloom.fonts'
func tracer() tracing.Trace {
	return tracing.Select("fontloom.fonts")
}

func main() {
	initDisplay()

	// set up logging
	tracing.RegisterTraceAdapter("go", gologadapter.GetAdapter(), false)
	conf := testconfig.Conf{
		"tracing.adapter":      "go",
		"trace.fontloom.fonts": "Info",
	}
	if err := trace2go.ConfigureRoot(conf, "trace", trace2go.ReplaceTracers(true)); err != nil {
		fmt.Printf("error configuring tracing")
		os.Exit(1)
	}
	tracing.SetTraceSelector(trace2go.Selector())

	// command line flags
	tlevel := flag.String("trace", "Error", "Trace level [Debug|Info|Error]")
	fontname := flag.String("font", "", "Font to load")
	size := flag.String("size", "10pt", "Font size for scaled values")
	lang := flag.String("lang", "", "BCP 47 language for layout features, e.g. 'de'")
	flag.Parse()
	tracer().SetTraceLevel(tracing.LevelError) // will set the correct level later
	pterm.Info.Println("Welcome to the font inspector")
	//
	intp := &Intp{}
	sz, pcnt, err := dimen.ParseDimen(*size)
	if err != nil || pcnt || sz <= 0 {
		pterm.Error.Printfln("invalid font size: %s", *size)
		os.Exit(2)
	}
	intp.size = sz
	//
	// load font to use
	if intp.font, err = resources.LoadFont(*fontname); err != nil { // font name provided by flag
		pterm.Error.Println(err.Error())
		os.Exit(4)
	}
	if w, ok := intp.font.(interface{ SetWarningHandler(func(string)) }); ok {
		w.SetWarningHandler(func(msg string) {
			pterm.Warning.Println(msg)
		})
	}
	if otf, ok := intp.font.(*opentype.Font); ok && *lang != "" {
		tag, err := language.Parse(*lang)
		if err != nil {
			pterm.Error.Printfln("invalid language: %s", *lang)
			os.Exit(2)
		}
		otf.SetLanguage(tag)
	}
	pterm.Printfln("loaded font %s", intp.font.Name())
	//
	switch *tlevel {
	case "Debug":
		tracer().SetTraceLevel(tracing.LevelDebug)
	case "Info":
		tracer().SetTraceLevel(tracing.LevelInfo)
	case "Error":
		tracer().SetTraceLevel(tracing.LevelError)
	default:
		tracer().Errorf("Invalid trace level: %s", *tlevel)
		os.Exit(5)
	}
	tracer().Infof("Trace level is %s", *tlevel)
	//
	// set up REPL
	if intp.repl, err = readline.New("font > "); err != nil {
		tracer().Errorf(err.Error())
		os.Exit(3)
	}
	defer intp.repl.Close()
	pterm.Info.Println("Quit with <ctrl>D") // inform user how to stop the CLI
	intp.REPL()                             // go into interactive mode
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
	font font.Font
	size dimen.Dimen
	repl *readline.Instance
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
		cmd := parseCommand(line)
		quit, err := intp.execute(cmd)
		if err != nil {
			pterm.Error.Println(err.Error())
			continue
		}
		if quit {
			break
		}
	}
	pterm.Info.Println("Good bye!")
}
