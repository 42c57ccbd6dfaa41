package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"

	"github.com/MrSnakeDoc/stakehub/internal/domain"
	"github.com/MrSnakeDoc/stakehub/internal/livestate"
	"github.com/MrSnakeDoc/stakehub/internal/logger"
	"github.com/MrSnakeDoc/stakehub/internal/solana"
	"github.com/MrSnakeDoc/stakehub/internal/sources/registry"
	"github.com/MrSnakeDoc/stakehub/internal/view"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "poolctl",
		Usage: "inspect and validate stake pool registry files",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "file", Aliases: []string{"f"}, Value: "configs/pools.yaml", Usage: "registry file path", EnvVars: []string{"STAKEHUB_REGISTRY_FILE"}},
			&cli.StringFlag{Name: "cluster", Aliases: []string{"c"}, Value: domain.ClusterMainnet.String(), Usage: "cluster whose overlay is applied", EnvVars: []string{"STAKEHUB_DEFAULT_CLUSTER"}},
		},
		Commands: []*cli.Command{
			{
				Name:   "validate",
				Usage:  "check every cluster registry and print warnings",
				Action: validate,
			},
			{
				Name:   "list",
				Usage:  "list the pools of a cluster in registry order",
				Action: list,
			},
			{
				Name:   "export",
				Usage:  "print the effective pool list of a cluster as YAML",
				Action: export,
			},
			{
				Name:  "render",
				Usage: "render the listing page, or a pool page with --pool, to stdout",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "pool", Usage: "pool name or address"},
					&cli.StringFlag{Name: "rpc", Usage: "RPC endpoint used to fill in live state", EnvVars: []string{"STAKEHUB_RPC_URL"}},
					&cli.DurationFlag{Name: "timeout", Value: 10 * time.Second, Usage: "live state fetch timeout"},
				},
				Action: render,
			},
		},
	}
}

func loadCatalog(c *cli.Context) (*registry.Catalog, error) {
	f, err := registry.NewLoader(c.String("file")).Load()
	if err != nil {
		return nil, err
	}
	return registry.Build(f)
}

func selectedCluster(c *cli.Context) (domain.Cluster, error) {
	cluster, ok := domain.ParseCluster(c.String("cluster"))
	if !ok {
		return "", fmt.Errorf("unknown cluster %q", c.String("cluster"))
	}
	return cluster, nil
}

func validate(c *cli.Context) error {
	cat, err := loadCatalog(c)
	if err != nil {
		return err
	}
	out := c.App.Writer
	for _, cluster := range domain.Clusters {
		reg := cat.Registry(cluster)
		fmt.Fprintf(out, "%s: %d pools (%d listed)\n", cluster, reg.Len(), len(domain.ListedDescriptors(reg.All())))
		for _, w := range cat.Warnings[cluster] {
			fmt.Fprintf(out, "  warning: %s\n", w)
		}
	}
	fmt.Fprintln(out, "ok")
	return nil
}

func list(c *cli.Context) error {
	cluster, err := selectedCluster(c)
	if err != nil {
		return err
	}
	cat, err := loadCatalog(c)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(c.App.Writer, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tADDRESS\tHOSTNAME\tFLAGS")
	for _, d := range cat.Registry(cluster).All() {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", d.Name, d.PoolAddress, d.HostnameOverride, flags(d))
	}
	return tw.Flush()
}

func flags(d domain.PoolDescriptor) string {
	var f []string
	if d.Hidden {
		f = append(f, "hidden")
	}
	if d.NotFound {
		f = append(f, "notFound")
	}
	if d.RedirectURL != "" {
		f = append(f, "redirect")
	}
	if len(d.DisallowedRegions) > 0 {
		f = append(f, "geo")
	}
	if len(f) == 0 {
		return "-"
	}
	return strings.Join(f, ",")
}

func export(c *cli.Context) error {
	cluster, err := selectedCluster(c)
	if err != nil {
		return err
	}
	cat, err := loadCatalog(c)
	if err != nil {
		return err
	}

	doc := struct {
		Cluster string                `yaml:"cluster"`
		Pools   []registry.PoolSchema `yaml:"pools"`
	}{
		Cluster: cluster.String(),
		Pools:   registry.NewMapper().FromDomain(cat.Registry(cluster).All()),
	}
	enc := yaml.NewEncoder(c.App.Writer)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return err
	}
	return enc.Close()
}

func render(c *cli.Context) error {
	cluster, err := selectedCluster(c)
	if err != nil {
		return err
	}
	cat, err := loadCatalog(c)
	if err != nil {
		return err
	}
	reg := cat.Registry(cluster)

	var sources map[domain.Cluster]livestate.Source
	if endpoint := c.String("rpc"); endpoint != "" {
		client := solana.NewHTTPClient(endpoint, solana.WithTimeout(c.Duration("timeout")))
		sources = map[domain.Cluster]livestate.Source{cluster: livestate.NewRPCSource(client, cluster, nil)}
	}
	enricher := livestate.NewEnricher(livestate.NewProvider(sources, cluster), logger.NewNop(),
		livestate.WithFetchTimeout(c.Duration("timeout")))

	renderer, err := view.NewRenderer()
	if err != nil {
		return err
	}

	param := ""
	if cluster != domain.ClusterMainnet {
		param = cluster.String()
	}
	return renderPage(c.Context, c.App.Writer, renderer, enricher, reg, cat.Site, cluster, param, c.String("pool"))
}

func renderPage(ctx context.Context, w io.Writer, r *view.Renderer, e *livestate.Enricher, reg *domain.Registry, site domain.SiteBranding, cluster domain.Cluster, param, key string) error {
	if key == "" {
		views := e.Enrich(ctx, cluster, domain.ListedDescriptors(reg.All()))
		return r.Listing(w, view.NewListingPage(site, views, cluster, param))
	}

	d, err := reg.Find(key)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	return r.Pool(w, view.NewPoolPage(site, e.EnrichOne(ctx, cluster, d), cluster, param))
}
