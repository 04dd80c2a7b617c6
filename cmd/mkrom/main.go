package main

import (
	"flag"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/docker/go-units"

	"github.com/clktmr/n64loop/drivers/audio"
	"github.com/clktmr/n64loop/drivers/romfs"
)

const usageString = `Asset image builder.

Usage: %s [flags] <outfile>
       %s -list <image>

`

var (
	title = flag.String("title", "N64LOOP", "image title, up to 20 ISO 8859-1 characters")
	pbank = flag.String("pbank", "", "pointer bank file")
	wbank = flag.String("wbank", "", "wave bank file")
	song  = flag.String("song", "", "song file")
	list  = flag.Bool("list", false, "print the regions of an existing image")
)

func usage() {
	fmt.Fprintf(flag.CommandLine.Output(), usageString, os.Args[0], os.Args[0])
	flag.PrintDefaults()
}

func main() {
	flag.Usage = usage
	flag.Parse()
	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(1)
	}
	if *list {
		listImage(flag.Arg(0))
		return
	}

	var sources []romfs.Source
	for _, r := range []struct{ name, path string }{
		{audio.RegionPtrBank, *pbank},
		{audio.RegionWaveBank, *wbank},
		{audio.RegionSong, *song},
	} {
		if r.path == "" {
			continue
		}
		f := must(os.Open(r.path))
		defer f.Close()
		sources = append(sources, romfs.Source{Name: r.name, R: f})
	}

	out := must(os.Create(flag.Arg(0)))
	if err := romfs.Create(out, *title, sources); err != nil {
		out.Close()
		os.Remove(flag.Arg(0))
		must(0, err)
	}
	must(0, out.Close())
}

func listImage(name string) {
	f := must(os.Open(name))
	defer f.Close()
	img := must(romfs.Read(f))

	fmt.Printf("%q\n", img.Title)
	w := tabwriter.NewWriter(os.Stdout, 0, 8, 1, ' ', 0)
	for _, r := range img.Regions() {
		fmt.Fprintf(w, "%s\t%#08x\t%#08x\t%s\n", r.Name, r.Start, r.End,
			units.HumanSize(float64(r.Size())))
	}
	w.Flush()
}

func must[T any](ret T, err error) T {
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	return ret
}
