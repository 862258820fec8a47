// Command binpack packs rectangles into fixed-size bins from the command line
// and optionally renders the layout to PNG, SVG, PDF or DXF.
package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/alecthomas/kingpin/v2"
	"go.uber.org/zap"

	"github.com/eugenenazirov/binpacker/internal/config"
	"github.com/eugenenazirov/binpacker/internal/geometry"
	"github.com/eugenenazirov/binpacker/internal/importer"
	"github.com/eugenenazirov/binpacker/internal/logging"
	"github.com/eugenenazirov/binpacker/internal/packer"
)

var errNoItems = errors.New("no items to pack")

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "binpack: %v\n", err)
		os.Exit(1)
	}
}

type packCommand struct {
	configFile string
	binSize    string
	binWidth   float64
	binHeight  float64
	items      []string
	input      string
	output     string
	scale      float64
	asJSON     bool
	logLevel   string
}

func run(args []string, stdout, stderr io.Writer) error {
	app := kingpin.New("binpack", "Greedy shelf bin packer for rectangles")
	app.UsageWriter(stderr)
	app.ErrorWriter(stderr)

	var pc packCommand
	pack := app.Command("pack", "Pack items into bins").Default()
	pack.Flag("config", "Path to YAML configuration file supplying the default bin size").StringVar(&pc.configFile)
	pack.Flag("bin-size", "Bin size as WxH, e.g. 20x10").StringVar(&pc.binSize)
	pack.Flag("bin-width", "Bin width").Float64Var(&pc.binWidth)
	pack.Flag("bin-height", "Bin height").Float64Var(&pc.binHeight)
	pack.Flag("item", "Item as WxH or WxH*QTY; repeatable").Short('i').StringsVar(&pc.items)
	pack.Flag("input", "CSV or Excel file listing items").StringVar(&pc.input)
	pack.Flag("output", "Render the layout to a .png, .svg, .pdf or .dxf file").Short('o').StringVar(&pc.output)
	pack.Flag("scale", "Pixels per unit for PNG and SVG output").Default("20").Float64Var(&pc.scale)
	pack.Flag("json", "Print the result as JSON instead of a text report").BoolVar(&pc.asJSON)
	pack.Flag("log-level", "Log level: debug, info, warn, error").Default("warn").StringVar(&pc.logLevel)

	var ec packCommand
	example := app.Command("example", "Pack the built-in example list into 20x10 bins")
	example.Flag("output", "Render the layout to a .png, .svg, .pdf or .dxf file").Short('o').StringVar(&ec.output)
	example.Flag("scale", "Pixels per unit for PNG and SVG output").Default("20").Float64Var(&ec.scale)
	example.Flag("json", "Print the result as JSON instead of a text report").BoolVar(&ec.asJSON)
	example.Flag("log-level", "Log level: debug, info, warn, error").Default("warn").StringVar(&ec.logLevel)

	cmd, err := app.Parse(args)
	if err != nil {
		return err
	}

	switch cmd {
	case example.FullCommand():
		ec.binWidth, ec.binHeight = packer.ExampleBinWidth, packer.ExampleBinHeight
		return ec.execute(stdout, packer.ExampleItems)
	default:
		return pc.execute(stdout, nil)
	}
}

func (c *packCommand) execute(stdout io.Writer, source func() []geometry.Item) error {
	logger, err := logging.NewConsole(c.logLevel)
	if err != nil {
		return err
	}
	defer func() {
		_ = logger.Sync()
	}()

	width, height, err := c.resolveBinSize()
	if err != nil {
		return err
	}

	var items []geometry.Item
	if source != nil {
		items = source()
	} else {
		items, err = c.collectItems(logger)
		if err != nil {
			return err
		}
	}

	logger.Debug("packing",
		zap.Int("items", len(items)),
		zap.Float64("bin_width", width),
		zap.Float64("bin_height", height),
	)

	res, err := packer.New(packer.WithLogger(logger)).Pack(items, width, height)
	if err != nil {
		return err
	}

	if c.output != "" {
		if err := writeOutput(c.output, res, c.scale); err != nil {
			return fmt.Errorf("render %s: %w", c.output, err)
		}
		logger.Info("layout written", zap.String("path", c.output))
	}

	if c.asJSON {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}
	return writeReport(stdout, res, width, height)
}

// resolveBinSize applies flags over the configured default. The config layer
// contributes BIN_SIZE, BIN_WIDTH and BIN_HEIGHT from the environment and the
// bin section of the YAML file.
func (c *packCommand) resolveBinSize() (float64, float64, error) {
	if c.binWidth != 0 && c.binHeight != 0 && c.configFile == "" && c.binSize == "" {
		return c.binWidth, c.binHeight, geometry.ValidateSize(c.binWidth, c.binHeight)
	}

	overrides := &config.CLIOverrides{ConfigFile: c.configFile}
	if c.binSize != "" {
		w, h, err := config.ParseBinSize(c.binSize)
		if err != nil {
			return 0, 0, fmt.Errorf("--bin-size: %w", err)
		}
		overrides.BinWidth, overrides.BinHeight = &w, &h
	}
	if c.binWidth != 0 {
		overrides.BinWidth = &c.binWidth
	}
	if c.binHeight != 0 {
		overrides.BinHeight = &c.binHeight
	}

	cfg, err := config.Load(overrides)
	if err != nil {
		return 0, 0, err
	}
	return cfg.BinWidth, cfg.BinHeight, nil
}

func (c *packCommand) collectItems(logger *zap.Logger) ([]geometry.Item, error) {
	var items []geometry.Item
	for _, raw := range c.items {
		parsed, err := parseItemFlag(raw)
		if err != nil {
			return nil, err
		}
		items = append(items, parsed...)
	}

	if c.input != "" {
		res := importer.Import(c.input)
		for _, w := range res.Warnings {
			logger.Warn("import warning", zap.String("file", c.input), zap.String("detail", w))
		}
		for _, e := range res.Errors {
			logger.Warn("import error", zap.String("file", c.input), zap.String("detail", e))
		}
		if len(res.Items) == 0 {
			if len(res.Errors) > 0 {
				return nil, fmt.Errorf("import %s: %s", c.input, res.Errors[0])
			}
			return nil, fmt.Errorf("import %s: %w", c.input, errNoItems)
		}
		items = append(items, res.Items...)
	}

	if len(items) == 0 {
		logger.Info("no items given, packing the example list")
		return packer.ExampleItems(), nil
	}
	return items, nil
}

// parseItemFlag parses "WxH" or "WxH*QTY".
func parseItemFlag(raw string) ([]geometry.Item, error) {
	dims, qtyStr, hasQty := strings.Cut(raw, "*")
	w, h, err := config.ParseBinSize(dims)
	if err != nil {
		return nil, fmt.Errorf("--item %q: %w", raw, err)
	}

	qty := 1
	if hasQty {
		qty, err = strconv.Atoi(strings.TrimSpace(qtyStr))
		if err != nil || qty <= 0 || qty > importer.MaxQuantity {
			return nil, fmt.Errorf("--item %q: quantity must be between 1 and %d", raw, importer.MaxQuantity)
		}
	}

	out := make([]geometry.Item, qty)
	for i := range out {
		out[i] = geometry.Item{Width: w, Height: h}
	}
	return out, nil
}
