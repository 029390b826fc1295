// Command replaydump loads a recorded match (internal/replay) and
// feeds it through kernel.Step directly, printing a per-frame checksum
// line — a manual determinism check: two runs of the same replay file
// must print identical output.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"fightnet/internal/kernel"
	"fightnet/internal/replay"
	"fightnet/internal/snapshot"
)

func main() {
	path := flag.String("file", "", "path to a .json.gz replay file")
	p0X := flag.Float64("p0x", -100, "P0 starting X position")
	p1X := flag.Float64("p1x", 100, "P1 starting X position")
	maxHealth := flag.Int("maxhealth", 1000, "starting health for both characters")
	flag.Parse()

	if *path == "" {
		log.Fatal("replaydump: -file is required")
	}

	rp, err := replay.LoadFile(*path)
	if err != nil {
		log.Fatalf("replaydump: %v", err)
	}

	if gaps := rp.Validate(); len(gaps) > 0 {
		log.Printf("replaydump: warning: %d frame-number gap(s) at indices %v", len(gaps), gaps)
	}

	fmt.Printf("# version=%d characters=%v duration=%d frames=%d\n",
		rp.Version, rp.Meta.Characters, rp.Meta.Duration, len(rp.Frames))

	initial := kernel.NewMatch(rp.Meta.Characters[0], rp.Meta.Characters[1], *p0X, *p1X, *maxHealth)
	states := replay.Play(initial, rp)

	for i, s := range states {
		_, checksum, _, err := snapshot.Save(s)
		if err != nil {
			fmt.Fprintf(os.Stderr, "replaydump: frame %d: snapshot: %v\n", rp.Frames[i].Frame, err)
			os.Exit(1)
		}
		fmt.Printf("frame=%d checksum=%08x p0.health=%d p1.health=%d\n",
			s.Frame, checksum, s.P0.Health, s.P1.Health)
	}
}
