package seed

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math/rand"
	"strings"

	"agroproposals/internal/proposal"
	"agroproposals/pkg/types"
)

type Submitter interface {
	Submit(ctx context.Context, identity *types.Identity, sub proposal.Submission) (*proposal.Result, error)
}

var demoAreas = []string{
	"North Field",
	"South Terrace",
	"River Plot 3",
	"Greenhouse A",
	"East Orchard",
	"Upper Meadow",
}

var demoPlants = []string{
	"Maize",
	"Cassava",
	"Sorghum",
	"Wheat",
	"Coffee",
	"Tomato",
	"Soybean",
}

var demoFarmers = []string{
	"Amara Okafor",
	"Lucas Pereira",
	"Mei Lin",
	"Tomás García",
	"Fatima Diallo",
	"Jonas Berg",
}

// SeedProposals pushes count demo proposals for owner through the full
// submission pipeline, so each one gets a real PDF in storage. Every other
// proposal carries a drawn signature.
func SeedProposals(ctx context.Context, submitter Submitter, owner *types.Identity, count int, rng *rand.Rand) ([]*proposal.Result, error) {
	if !owner.Authenticated() {
		return nil, types.ErrNotAuthenticated
	}

	signature, err := demoSignature()
	if err != nil {
		return nil, fmt.Errorf("draw demo signature: %w", err)
	}

	results := make([]*proposal.Result, 0, count)
	for i := range count {
		farmer := demoFarmers[rng.Intn(len(demoFarmers))]

		sub := proposal.Submission{
			Fields: types.ProposalFields{
				Area:  demoAreas[rng.Intn(len(demoAreas))],
				Plant: demoPlants[rng.Intn(len(demoPlants))],
				Name:  farmer,
				Email: demoEmail(farmer),
			},
		}
		if i%2 == 0 {
			sub.Signature = signature
		}

		res, err := submitter.Submit(ctx, owner, sub)
		if err != nil {
			return results, fmt.Errorf("seed proposal %d of %d: %w", i+1, count, err)
		}

		results = append(results, res)
	}

	return results, nil
}

func demoEmail(name string) string {
	local := strings.ToLower(strings.Join(strings.Fields(name), "."))
	local = strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || r == '.' {
			return r
		}
		return -1
	}, local)

	return local + "@farm.example"
}

// demoSignature draws a wavy pen stroke on a white canvas.
func demoSignature() ([]byte, error) {
	const w, h = 300, 100

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.White)
		}
	}

	ink := color.RGBA{R: 0x33, G: 0x33, B: 0x33, A: 0xff}
	for x := 20; x < w-20; x++ {
		y := h/2 + (x%40-20)*(x%40-20)/20 - 10
		for dy := 0; dy < 2; dy++ {
			img.Set(x, y+dy, ink)
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}
