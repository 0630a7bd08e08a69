package main

import (
	"flag"

	"github.com/golang/glog"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/yoremi/ai5dev-go/pkg/binarray"
	"github.com/yoremi/ai5dev-go/pkg/config"
	"github.com/yoremi/ai5dev-go/pkg/lzss"
	"github.com/yoremi/ai5dev-go/pkg/mes"
)

var (
	GameName   string
	ConfigFile string
	RawText    bool
	Compressed bool
	OutputPath string
)

var rootCmd = &cobra.Command{
	Use:           "mesdec",
	Short:         "AI5 MES script decoder",
	Version:       config.Version,
	SilenceUsage:  true,
	SilenceErrors: true, // reported through glog by main
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// glog complains unless the standard flag set counts as parsed;
		// the values were already set through pflag
		return flag.CommandLine.Parse(nil)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&GameName, "game", "g", "", "game name (see 'mesdec games')")
	rootCmd.PersistentFlags().StringVarP(&ConfigFile, "config", "c", "", "settings file (default: search for "+config.FileName+")")
	rootCmd.PersistentFlags().BoolVar(&RawText, "raw", false, "print text bytes without Shift_JIS conversion")
	rootCmd.PersistentFlags().BoolVar(&Compressed, "lzss", false, "inputs are LZSS compressed")
	rootCmd.PersistentFlags().StringVarP(&OutputPath, "output", "o", "", "output file, or directory for several inputs")

	// -v, -logtostderr and friends
	rootCmd.PersistentFlags().AddGoFlagSet(flag.CommandLine)
}

// session is the resolved configuration of one invocation.
type session struct {
	cfg  *config.Config
	tbl  *mes.OpcodeTable
	opts mes.PrintOptions
}

func loadSession() (*session, error) {
	cfg, err := config.Load(ConfigFile)
	if err != nil {
		return nil, err
	}
	if GameName != "" {
		cfg.Game = GameName
	}
	if RawText {
		cfg.Encoding = "raw"
	}
	if Compressed {
		cfg.Compressed = true
	}

	tbl, err := cfg.OpcodeTable()
	if err != nil {
		return nil, err
	}
	opts, err := cfg.PrintOptions()
	if err != nil {
		return nil, err
	}
	return &session{cfg: cfg, tbl: tbl, opts: opts}, nil
}

func (s *session) parse(fname string) (*mes.Program, *binarray.Buffer, error) {
	buf, err := binarray.ReadFile(fname)
	if err != nil {
		return nil, nil, err
	}
	if s.cfg.Compressed {
		data, err := lzss.Decompress(buf.Data, 0)
		if err != nil {
			return nil, nil, errors.Wrap(err, "cannot decompress")
		}
		glog.V(1).Infof("%s: %d bytes unpacked to %d", fname, buf.Len(), len(data))
		buf = binarray.FromBytes(data)
	}
	prog, err := mes.Parse(buf.Data, s.tbl)
	if err != nil {
		return nil, nil, err
	}
	return prog, buf, nil
}
