package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/bigbag/dleframe/internal/config"
	"github.com/bigbag/dleframe/internal/dle"
	"github.com/bigbag/dleframe/internal/logging"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var (
	configFlag         string
	modeFlag           string
	escapeCRFlag       bool
	rejectTrailingFlag bool
	capacityFlag       int
	hexFlag            bool
	logLevelFlag       string
	outputFlag         string
	progressFlag       bool
	omitMarkersFlag    bool
)

var (
	cfg    config.Config
	logger zerolog.Logger
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "dleframe",
		Short: "Encode and decode ASCII DLE framed data",
		Long: `dleframe wraps payloads in STX/ETX frames with DLE byte stuffing, the
framing used on many UART links, and unwraps them again.

Two wire formats are supported:
  escaped      STX ... ETX, with STX/ETX/DLE in the payload escaped
  non-escaped  DLE STX ... DLE ETX, with only DLE doubled

Input is read from a file argument or stdin. Nothing here opens a serial
device; pipe captured bytes in instead.`,
		SilenceUsage:      true,
		PersistentPreRunE: setup,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&configFlag, "config", "c", "", "TOML config file")
	pf.StringVarP(&modeFlag, "mode", "m", dle.Escaped.String(), "Framing mode (escaped, non-escaped)")
	pf.BoolVar(&escapeCRFlag, "escape-cr", false, "Also escape CR in escaped mode")
	pf.BoolVar(&rejectTrailingFlag, "reject-trailing", false, "Fail when bytes follow the decoded frame")
	pf.IntVar(&capacityFlag, "capacity", 0, "Output buffer size in bytes (0 = fit output)")
	pf.BoolVarP(&hexFlag, "hex", "x", false, "Read and write hex text instead of raw bytes")
	pf.StringVar(&logLevelFlag, "log-level", "info", "Log level (debug, info, warn, error)")
	pf.StringVarP(&outputFlag, "output", "o", "", "Write output to file instead of stdout")

	// Encode command
	encodeCmd := &cobra.Command{
		Use:   "encode [file]",
		Short: "Wrap a payload in a frame",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runEncode,
	}
	encodeCmd.Flags().BoolVar(&omitMarkersFlag, "omit-markers", false, "Write only the stuffed payload, without start and end markers")

	// Decode command
	decodeCmd := &cobra.Command{
		Use:   "decode [file]",
		Short: "Unwrap the frame at the start of the input",
		Long: `Decode the frame at the start of the input and write its payload.

Bytes after the end marker are ignored with a warning, or rejected with
--reject-trailing.`,
		Args: cobra.MaximumNArgs(1),
		RunE: runDecode,
	}

	// Scan command
	scanCmd := &cobra.Command{
		Use:   "scan [file]",
		Short: "List every frame in a capture",
		Long: `Walk a capture buffer, skipping noise between frames, and print the
offset and decoded payload of each frame found.`,
		Args: cobra.MaximumNArgs(1),
		RunE: runScan,
	}
	scanCmd.Flags().BoolVar(&progressFlag, "progress", true, "Show a progress bar on stderr")

	// Version command
	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Show version info",
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "dleframe %s\n", version)
			fmt.Fprintf(out, "  commit: %s\n", commit)
			fmt.Fprintf(out, "  built:  %s\n", date)
		},
	}

	rootCmd.AddCommand(encodeCmd, decodeCmd, scanCmd, versionCmd)
	return rootCmd
}

// setup resolves settings (defaults, then config file, then flags) and builds
// the logger.
func setup(cmd *cobra.Command, args []string) error {
	c := config.Default()
	if configFlag != "" {
		loaded, err := config.Load(configFlag)
		if err != nil {
			return err
		}
		c = loaded
	}

	flags := cmd.Flags()
	if flags.Changed("mode") {
		mode, err := dle.ParseMode(modeFlag)
		if err != nil {
			return err
		}
		c.Mode = mode
	}
	if flags.Changed("escape-cr") {
		c.EscapeCR = escapeCRFlag
	}
	if flags.Changed("reject-trailing") {
		c.RejectTrailing = rejectTrailingFlag
	}
	if flags.Changed("capacity") {
		c.Capacity = capacityFlag
	}
	if flags.Changed("log-level") {
		level, err := config.ParseLevel(logLevelFlag)
		if err != nil {
			return err
		}
		c.LogLevel = level
	}
	if err := c.Validate(); err != nil {
		return err
	}

	cfg = c
	w := cmd.ErrOrStderr()
	if w == os.Stderr {
		w = nil
	}
	logger = logging.New(cfg.LogLevel, w)
	logger.Debug().
		Str("mode", cfg.Mode.String()).
		Bool("escape_cr", cfg.EscapeCR).
		Bool("reject_trailing", cfg.RejectTrailing).
		Int("capacity", cfg.Capacity).
		Msg("settings resolved")
	return nil
}

func runEncode(cmd *cobra.Command, args []string) error {
	payload, err := readInput(cmd, args)
	if err != nil {
		return err
	}

	codec := cfg.Codec()
	codec.OmitMarkers = omitMarkersFlag
	size := cfg.Capacity
	if size == 0 {
		size = codec.EncodedLen(payload)
	}

	buf := make([]byte, size)
	n, err := codec.Encode(buf, payload)
	if err != nil {
		if errors.Is(err, dle.ErrBufferTooSmall) {
			logger.Error().Int("capacity", size).Int("required", codec.EncodedLen(payload)).Msg("frame does not fit")
		}
		return fmt.Errorf("encode failed: %w", err)
	}

	logger.Debug().Int("payload", len(payload)).Int("frame", n).Msg("encoded")
	return writeOutput(cmd, buf[:n])
}

func runDecode(cmd *cobra.Command, args []string) error {
	frame, err := readInput(cmd, args)
	if err != nil {
		return err
	}

	codec := cfg.Codec()
	size := cfg.Capacity
	if size == 0 {
		size = len(frame)
	}

	buf := make([]byte, size)
	n, consumed, err := codec.Decode(buf, frame)
	if err != nil {
		var decErr *dle.DecodeError
		if errors.As(err, &decErr) {
			logger.Error().Int("offset", decErr.Offset).Err(decErr.Err).Msg("malformed frame")
		}
		return fmt.Errorf("decode failed: %w", err)
	}

	if trailing := len(frame) - consumed; trailing > 0 {
		logger.Warn().Int("consumed", consumed).Int("trailing", trailing).Msg("ignoring bytes after frame")
	}
	logger.Debug().Int("frame", consumed).Int("payload", n).Msg("decoded")
	return writeOutput(cmd, buf[:n])
}

func runScan(cmd *cobra.Command, args []string) error {
	data, err := readInput(cmd, args)
	if err != nil {
		return err
	}

	bar := progressbar.NewOptions(len(data),
		progressbar.OptionSetDescription("Scanning"),
		progressbar.OptionSetWriter(cmd.ErrOrStderr()),
		progressbar.OptionSetVisibility(progressFlag),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowBytes(true),
		progressbar.OptionThrottle(100*time.Millisecond),
		progressbar.OptionClearOnFinish(),
	)

	out := cmd.OutOrStdout()
	codec := cfg.Codec()
	s := dle.NewScanner(codec, data)
	frames, bad := 0, 0
	for s.Next() {
		frames++
		size := cfg.Capacity
		if size == 0 {
			size = len(s.Frame())
		}
		buf := make([]byte, size)
		n, err := s.Decode(buf)
		if err != nil {
			bad++
			logger.Warn().Int("offset", s.Offset()).Err(err).Msg("bad frame")
			fmt.Fprintf(out, "frame %d at 0x%X (%d bytes): %v\n", frames, s.Offset(), len(s.Frame()), err)
		} else {
			fmt.Fprintf(out, "frame %d at 0x%X (%d bytes): % X\n", frames, s.Offset(), len(s.Frame()), buf[:n])
		}
		bar.Set(s.Pos())
	}
	bar.Finish()

	rest := len(s.Rest())
	if rest > 0 {
		logger.Info().Int("bytes", rest).Msg("no complete frame in tail")
	}
	fmt.Fprintf(out, "%d frame(s), %d bad, %d byte(s) unframed at end\n", frames, bad, rest)

	if bad > 0 {
		return fmt.Errorf("%d of %d frames failed to decode", bad, frames)
	}
	return nil
}
