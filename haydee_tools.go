package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/mogaika/haydee_tools/config"
	"github.com/mogaika/haydee_tools/convert"
	"github.com/mogaika/haydee_tools/utils"
	"github.com/mogaika/haydee_tools/vfs"
	"github.com/mogaika/haydee_tools/web"
)

func main() {
	var settingsPath string
	var dump, listEncodings bool

	s := config.DefaultSettings()
	flag.StringVar(&settingsPath, "config", "", "Path to yaml settings, flags override it")
	flag.StringVar(&s.Address, "i", s.Address, "Address of server")
	flag.StringVar(&s.Dir, "dir", s.Dir, "Game or mod directory to browse")
	flag.StringVar(&s.Format, "format", s.Format, "File format generation: H1 or H2")
	flag.StringVar(&s.Encoding, "encoding", s.Encoding, "Charmap of names and text files")
	flag.StringVar(&s.Export, "export", s.Export, "Batch target: gltf, fbx, yaml or an emitter extension (dmesh, skel, ...)")
	flag.StringVar(&s.Output, "o", s.Output, "Batch output directory")
	flag.BoolVar(&s.Verbose, "v", s.Verbose, "Trace skeleton and animation building")
	flag.BoolVar(&dump, "dump", false, "Print loaded assets")
	flag.BoolVar(&listEncodings, "encodings", false, "List supported encodings and exit")
	flag.Parse()

	if listEncodings {
		for _, e := range config.ListEncodings() {
			fmt.Println(e)
		}
		return
	}

	if settingsPath != "" {
		loaded, err := config.LoadSettings(settingsPath)
		if err != nil {
			log.Fatal(err)
		}
		s = overrideSettings(loaded, s)
	}
	if err := s.Apply(); err != nil {
		log.Fatal(err)
	}
	if s.Verbose {
		utils.SetVerbose(os.Stderr)
	}

	if flag.NArg() != 0 {
		c := &convert.Converter{Export: s.Export, Output: s.Output, Format: config.GetFileFormat()}
		if dump {
			c.Dump = os.Stdout
		}
		results := c.Run(flag.Args())
		if failed := convert.Failed(results); failed != 0 {
			log.Printf("%d of %d files failed", failed, len(results))
			os.Exit(1)
		}
		return
	}

	if s.Dir == "" {
		flag.PrintDefaults()
		return
	}
	if err := web.StartServer(s.Address, vfs.NewDirectoryDriver(s.Dir), "web"); err != nil {
		log.Fatal(err)
	}
}

// overrideSettings applies the flags given on the command line over loaded.
func overrideSettings(loaded, flags config.Settings) config.Settings {
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "i":
			loaded.Address = flags.Address
		case "dir":
			loaded.Dir = flags.Dir
		case "format":
			loaded.Format = flags.Format
		case "encoding":
			loaded.Encoding = flags.Encoding
		case "export":
			loaded.Export = flags.Export
		case "o":
			loaded.Output = flags.Output
		case "v":
			loaded.Verbose = flags.Verbose
		}
	})
	return loaded
}
