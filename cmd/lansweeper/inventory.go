package main

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/jmerrifield20/lansweeper-go/pkg/lansweeper"
	"github.com/spf13/cobra"
)

// ── sites ────────────────────────────────────────────────────────────────────

func newSitesCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sites",
		Short: "List and inspect authorized sites",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List the sites the token can access",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.newClient()
			if err != nil {
				return err
			}
			sites, err := c.ListSites(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if a.format == "json" {
				return a.printJSON(out, sites)
			}
			return printSites(out, sites)
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "get <site-id>",
		Short: "Show one site",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.newClient()
			if err != nil {
				return err
			}
			site, err := c.GetSite(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if a.format == "json" {
				return a.printJSON(out, site)
			}
			fmt.Fprintf(out, "ID:          %s\n", site.ID)
			fmt.Fprintf(out, "Name:        %s\n", lansweeper.Deref(site.Name))
			fmt.Fprintf(out, "Description: %s\n", lansweeper.Deref(site.Description))
			return nil
		},
	})
	return cmd
}

func printSites(out io.Writer, sites []lansweeper.Site) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tDESCRIPTION")
	for _, s := range sites {
		fmt.Fprintf(w, "%s\t%s\t%s\n", s.ID, lansweeper.Deref(s.Name), lansweeper.Deref(s.Description))
	}
	return w.Flush()
}

// ── assets ───────────────────────────────────────────────────────────────────

func newAssetsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "assets",
		Short: "List and inspect assets",
	}

	var (
		all   bool
		limit int
	)
	list := &cobra.Command{
		Use:   "list <site-id>",
		Short: "List the assets of a site",
		Long: `List the assets of a site. Without --all only the first page
(up to --limit assets) is fetched.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.newClient()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			var assets []lansweeper.Asset
			if all {
				cursor := ""
				for {
					page, err := c.ListAssetsPage(ctx, args[0], limit, cursor)
					if err != nil {
						return err
					}
					assets = append(assets, page.Items...)
					if !page.Pagination.HasNextPage() {
						break
					}
					cursor = *page.Pagination.Next
				}
			} else {
				page, err := c.ListAssetsPage(ctx, args[0], limit, "")
				if err != nil {
					return err
				}
				assets = page.Items
			}
			if assets == nil {
				assets = []lansweeper.Asset{}
			}

			out := cmd.OutOrStdout()
			if a.format == "json" {
				return a.printJSON(out, assets)
			}
			return printAssets(out, assets)
		},
	}
	list.Flags().BoolVar(&all, "all", false, "follow pagination and fetch every asset")
	list.Flags().IntVar(&limit, "limit", lansweeper.DefaultAssetLimit, "page size")
	cmd.AddCommand(list)

	cmd.AddCommand(&cobra.Command{
		Use:   "get <asset-id>",
		Short: "Show one asset with its custom fields",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.newClient()
			if err != nil {
				return err
			}
			asset, err := c.GetAsset(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if a.format == "json" {
				return a.printJSON(out, asset)
			}
			return printAsset(out, asset)
		},
	})
	return cmd
}

func printAssets(out io.Writer, assets []lansweeper.Asset) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tTYPE\tIP\tLAST SEEN")
	for _, a := range assets {
		bi := a.BasicInfo
		if bi == nil {
			bi = &lansweeper.AssetBasicInfo{}
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			lansweeper.Deref(a.ID), lansweeper.Deref(bi.Name), lansweeper.Deref(bi.Type),
			lansweeper.Deref(bi.IPAddress), formatTime(bi.LastSeen))
	}
	return w.Flush()
}

func printAsset(out io.Writer, a *lansweeper.Asset) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	row := func(k, v string) {
		if v != "" {
			fmt.Fprintf(w, "%s:\t%s\n", k, v)
		}
	}
	row("ID", lansweeper.Deref(a.ID))
	if bi := a.BasicInfo; bi != nil {
		row("Name", lansweeper.Deref(bi.Name))
		row("Type", lansweeper.Deref(bi.Type))
		row("Domain", lansweeper.Deref(bi.Domain))
		row("FQDN", lansweeper.Deref(bi.FQDN))
		row("IP", lansweeper.Deref(bi.IPAddress))
		row("MAC", lansweeper.Deref(bi.MAC))
		row("User", lansweeper.Deref(bi.UserName))
		row("First seen", formatTime(bi.FirstSeen))
		row("Last seen", formatTime(bi.LastSeen))
	}
	if cu := a.Custom; cu != nil {
		row("Manufacturer", lansweeper.Deref(cu.Manufacturer))
		row("Model", lansweeper.Deref(cu.Model))
		row("Serial", lansweeper.Deref(cu.SerialNumber))
		row("Location", lansweeper.Deref(cu.Location))
		row("State", lansweeper.Deref(cu.StateName))
		row("Warranty", formatTime(cu.WarrantyDate))
	}
	return w.Flush()
}

func formatTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(time.RFC3339)
}

// ── me ───────────────────────────────────────────────────────────────────────

func newMeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "me",
		Short: "Show the user that owns the access token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.newClient()
			if err != nil {
				return err
			}
			u, err := c.CurrentUser(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if a.format == "json" {
				return a.printJSON(out, u)
			}
			fmt.Fprintf(out, "ID:    %s\n", u.ID)
			fmt.Fprintf(out, "Name:  %s\n", lansweeper.Deref(u.Name))
			fmt.Fprintf(out, "Email: %s\n", lansweeper.Deref(u.Email))
			return nil
		},
	}
}
