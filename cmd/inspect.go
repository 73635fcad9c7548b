package main

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/spf13/cobra"

	"barreau-extractor/fields"
	"barreau-extractor/internal/types"
	"barreau-extractor/utils"
)

var inspectFlags struct {
	selector string
	wait     string
	click    string
	scripted bool
	sample   int
}

// inspectCmd checks a site definition's selectors against a live page
var inspectCmd = &cobra.Command{
	Use:   "inspect <url>",
	Short: "Fetch a page and report what a selector matches",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if inspectFlags.scripted {
			cfg.Mode = types.ModeScripted
		}
		fetcher, err := utils.NewPageFetcher(cfg, logger)
		if err != nil {
			return err
		}
		defer fetcher.Close()

		content, err := fetcher.Fetch(cmd.Context(), args[0], utils.FetchOptions{
			WaitSelector:  inspectFlags.wait,
			ClickSelector: inspectFlags.click,
		})
		if err != nil {
			return err
		}

		doc, err := goquery.NewDocumentFromReader(strings.NewReader(content))
		if err != nil {
			return fmt.Errorf("failed to parse HTML: %w", err)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Total links found: %d\n", doc.Find("a").Length())

		matches := doc.Find(inspectFlags.selector)
		fmt.Fprintf(out, "Elements matching %q: %d\n", inspectFlags.selector, matches.Length())

		matches.EachWithBreak(func(i int, s *goquery.Selection) bool {
			if i >= inspectFlags.sample {
				return false
			}
			src := fields.Harvest(s)
			fmt.Fprintf(out, "\n--- %d ---\n%s\n", i+1, src.Text)
			if len(src.Mailtos) > 0 {
				fmt.Fprintf(out, "mailto: %s\n", strings.Join(src.Mailtos, ", "))
			}
			if emails := fields.Emails(src.Text); len(emails) > 0 {
				fmt.Fprintf(out, "emails in text: %s\n", strings.Join(emails, ", "))
			}
			if len(src.Tels) > 0 {
				fmt.Fprintf(out, "tel: %s\n", strings.Join(src.Tels, ", "))
			}
			s.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
				href, _ := a.Attr("href")
				if len(href) < 100 {
					fmt.Fprintf(out, "  href='%s', text='%s'\n", href, strings.TrimSpace(a.Text()))
				}
			})
			return true
		})
		return nil
	},
}

func init() {
	f := inspectCmd.Flags()
	f.StringVar(&inspectFlags.selector, "selector", "body", "CSS selector to test")
	f.StringVar(&inspectFlags.wait, "wait", "", "Scripted mode: selector to wait for")
	f.StringVar(&inspectFlags.click, "click", "", "Scripted mode: selector of controls to click before capture")
	f.BoolVar(&inspectFlags.scripted, "scripted", false, "Fetch with the headless browser")
	f.IntVar(&inspectFlags.sample, "sample", 3, "Number of matches to print")

	rootCmd.AddCommand(inspectCmd)
}
