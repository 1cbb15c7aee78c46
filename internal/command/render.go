package command

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/stolasapp/calliope/internal/proxy"
	"github.com/stolasapp/calliope/internal/render"
	"github.com/stolasapp/calliope/internal/service"
)

func renderCommand() *cobra.Command {
	var (
		asEntry      bool
		site         bool
		webp         bool
		parentDomain string
		reputation   float64
		payout       float64
	)
	cmd := &cobra.Command{
		Use:   "render [FILE|-]",
		Short: "Render a post body to HTML",
		Long: "Renders markdown from FILE, or standard input, to sanitized HTML. Output\n" +
			"uses app-style data attributes unless --site is given.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, _, svc, err := loadService(cmd.Context())
			if err != nil {
				return err
			}
			src, err := readSource(cmd, args, asEntry)
			if err != nil {
				return err
			}

			opts := service.DefaultRenderOptions()
			opts.ForApp = !site
			opts.PreferWebP = webp
			opts.ParentDomain = parentDomain
			flags := cmd.Flags()
			if flags.Changed("reputation") || flags.Changed("payout") {
				opts.SEO = &render.SEO{AuthorReputation: reputation, PostPayout: payout}
			}
			return writeLine(cmd, svc.RenderPostBody(cmd.Context(), src, opts))
		},
	}
	flags := cmd.Flags()
	flags.BoolVar(&asEntry, "entry", false, "input is a JSON post entry")
	flags.BoolVar(&site, "site", false, "render site links instead of app data attributes")
	flags.BoolVar(&webp, "webp", false, "request WebP images from the proxy")
	flags.StringVar(&parentDomain, "parent-domain", "", "domain embedding the output (default from config)")
	flags.Float64Var(&reputation, "reputation", 0, "author reputation, for outbound link rel")
	flags.Float64Var(&payout, "payout", 0, "post payout, for outbound link rel")
	return cmd
}

func summaryCommand() *cobra.Command {
	var (
		asEntry  bool
		length   int
		platform string
	)
	cmd := &cobra.Command{
		Use:   "summary [FILE|-]",
		Short: "Summarize a post body as plain text",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, _, svc, err := loadService(cmd.Context())
			if err != nil {
				return err
			}
			src, err := readSource(cmd, args, asEntry)
			if err != nil {
				return err
			}
			return writeLine(cmd, svc.PostBodySummary(cmd.Context(), src, length, platform))
		},
	}
	flags := cmd.Flags()
	flags.BoolVar(&asEntry, "entry", false, "input is a JSON post entry")
	flags.IntVar(&length, "length", service.DefaultSummaryLength, "maximum length; 0 disables truncation")
	flags.StringVar(&platform, "platform", service.DefaultPlatform, "target platform")
	return cmd
}

// errNoImage reports that a post has no image to extract.
var errNoImage = errors.New("no image found")

func imageCommand() *cobra.Command {
	var (
		asEntry       bool
		width, height int
		formatName    string
	)
	cmd := &cobra.Command{
		Use:   "image [FILE|-]",
		Short: "Print the proxied lead image of a post",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := proxy.ParseFormat(formatName)
			if err != nil {
				return err
			}
			_, _, svc, err := loadService(cmd.Context())
			if err != nil {
				return err
			}
			src, err := readSource(cmd, args, asEntry)
			if err != nil {
				return err
			}
			image, ok := svc.CatchPostImage(cmd.Context(), src, width, height, format)
			if !ok {
				return errNoImage
			}
			return writeLine(cmd, image)
		},
	}
	addImageFlags(cmd, &width, &height, &formatName)
	cmd.Flags().BoolVar(&asEntry, "entry", false, "input is a JSON post entry")
	return cmd
}

func proxifyCommand() *cobra.Command {
	var (
		width, height int
		formatName    string
	)
	cmd := &cobra.Command{
		Use:   "proxify URL",
		Short: "Print the proxy URL for an image",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := proxy.ParseFormat(formatName)
			if err != nil {
				return err
			}
			_, _, svc, err := loadService(cmd.Context())
			if err != nil {
				return err
			}
			out := svc.ProxifyImageSrc(args[0], width, height, format)
			if out == "" {
				return errors.New("url must be an absolute http(s) URL")
			}
			return writeLine(cmd, out)
		},
	}
	addImageFlags(cmd, &width, &height, &formatName)
	return cmd
}

func addImageFlags(cmd *cobra.Command, width, height *int, format *string) {
	flags := cmd.Flags()
	flags.IntVar(width, "width", 0, "target width; 0 keeps the source width")
	flags.IntVar(height, "height", 0, "target height; 0 keeps the source height")
	flags.StringVar(format, "format", proxy.FormatMatch.String(), "image format: match, png or webp")
}
