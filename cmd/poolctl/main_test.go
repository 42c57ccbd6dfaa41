package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/MrSnakeDoc/stakehub/internal/domain"
)

const shippedRegistry = "../../configs/pools.yaml"

func run(t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	app := newApp()
	app.Writer = &out
	if err := app.Run(append([]string{"poolctl", "-f", shippedRegistry}, args...)); err != nil {
		t.Fatalf("poolctl %v error = %v", args, err)
	}
	return out.String()
}

func TestValidateShippedRegistry(t *testing.T) {
	out := run(t, "validate")
	if !strings.HasSuffix(strings.TrimSpace(out), "ok") {
		t.Errorf("validate output = %q", out)
	}
	if !strings.Contains(out, "mainnet-beta: 8 pools") {
		t.Errorf("validate should report 8 mainnet pools, got %q", out)
	}
}

func TestListAppliesOverlay(t *testing.T) {
	mainnet := run(t, "-c", "mainnet", "list")
	if !strings.Contains(mainnet, "basc-senshi") {
		t.Error("mainnet list should contain basc-senshi")
	}

	devnet := run(t, "-c", "devnet", "list")
	if strings.Contains(devnet, "basc-senshi") || strings.Contains(devnet, "tesmophoria") {
		t.Errorf("devnet overlay removes pools, got:\n%s", devnet)
	}
}

func TestExport(t *testing.T) {
	out := run(t, "-c", "devnet", "export")
	if !strings.Contains(out, "cluster: devnet") || !strings.Contains(out, "symbol: BASC") {
		t.Errorf("export output missing overlay data:\n%s", out)
	}
}

func TestRenderWithoutLiveState(t *testing.T) {
	out := run(t, "-c", "mainnet", "render", "--pool", "basc")
	if !strings.Contains(out, "<title>Bored Ape Solana Club</title>") {
		t.Error("pool page title missing")
	}
	if !strings.Contains(out, "…") {
		t.Error("pool page should show the placeholder without live state")
	}

	listing := run(t, "-c", "mainnet", "render")
	if !strings.Contains(listing, "Abducted BASC") || !strings.Contains(listing, "Tesmophoria") {
		t.Error("listing should contain every listed pool")
	}
}

func TestRenderUnknownPool(t *testing.T) {
	app := newApp()
	app.Writer = &bytes.Buffer{}
	err := app.Run([]string{"poolctl", "-f", shippedRegistry, "render", "--pool", "nope"})
	if err == nil {
		t.Fatal("render of an unknown pool should fail")
	}
}

func TestFlags(t *testing.T) {
	if got := flags(testDescriptor(true, false, "")); got != "hidden" {
		t.Errorf("flags() = %q", got)
	}
	if got := flags(testDescriptor(false, true, "https://x")); got != "notFound,redirect" {
		t.Errorf("flags() = %q", got)
	}
	if got := flags(testDescriptor(false, false, "")); got != "-" {
		t.Errorf("flags() = %q", got)
	}
}

func testDescriptor(hidden, notFound bool, redirect string) domain.PoolDescriptor {
	return domain.PoolDescriptor{Name: "p", Hidden: hidden, NotFound: notFound, RedirectURL: redirect}
}
