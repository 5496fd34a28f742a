package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
	"hashkey.local/internal/hashid"
	"hashkey.local/internal/platform/config"
)

type rootOptions struct {
	configPath string
	entity     string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:           "hashid",
		Short:         "Encode and decode entity ids with the service's hashids settings",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "hashids YAML file (overrides HASHIDS_CONFIG)")
	root.PersistentFlags().StringVarP(&opts.entity, "entity", "e", "shortlink", "entity type, e.g. shortlink or user")

	root.AddCommand(newEncodeCmd(opts), newDecodeCmd(opts), newConfigCmd(opts))
	return root
}

func (o *rootOptions) settings() (hashid.Settings, error) {
	if o.configPath != "" {
		if err := os.Setenv("HASHIDS_CONFIG", o.configPath); err != nil {
			return hashid.Settings{}, err
		}
	}
	cfg, err := config.Load()
	if err != nil {
		return hashid.Settings{}, err
	}
	return cfg.Hashids, nil
}

func (o *rootOptions) hasher() (*hashid.Hasher, error) {
	entity := hashid.EntityType(strings.TrimSpace(o.entity))
	if entity == "" {
		return nil, hashid.ErrEmptyEntity
	}
	s, err := o.settings()
	if err != nil {
		return nil, err
	}
	r, err := hashid.NewResolver(s)
	if err != nil {
		return nil, err
	}
	return hashid.NewProvider(r).For(entity), nil
}

func newEncodeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "encode ID...",
		Short: "Encode numeric ids, one code per line",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids := make([]int64, 0, len(args))
			for _, a := range args {
				id, err := strconv.ParseInt(a, 10, 64)
				if err != nil {
					return fmt.Errorf("invalid id %q: %w", a, err)
				}
				ids = append(ids, id)
			}
			h, err := opts.hasher()
			if err != nil {
				return err
			}
			codes, err := h.EncodeMany(ids)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, c := range codes {
				fmt.Fprintln(out, c)
			}
			return nil
		},
	}
}

func newDecodeCmd(opts *rootOptions) *cobra.Command {
	var strict bool
	cmd := &cobra.Command{
		Use:   "decode VALUE...",
		Short: "Decode hashids; prints \"value<TAB>id\", invalid values get \"-\"",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			h, err := opts.hasher()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			invalid := 0
			for _, v := range args {
				id, ok := h.Decode(v)
				if !ok {
					invalid++
					fmt.Fprintf(out, "%s\t-\n", v)
					continue
				}
				fmt.Fprintf(out, "%s\t%d\n", v, id)
			}
			if strict && invalid > 0 {
				return fmt.Errorf("%d value(s) could not be decoded as %s", invalid, h.Entity())
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&strict, "strict", false, "exit non-zero when any value is invalid")
	return cmd
}

// effectiveConfig 是 config 子命令的输出格式
type effectiveConfig struct {
	Entity    string `yaml:"entity"`
	Default   string `yaml:"default"`
	Override  bool   `yaml:"override"`
	Driver    string `yaml:"driver"`
	Salt      string `yaml:"salt"`
	Alphabet  string `yaml:"alphabet"`
	MinLength int    `yaml:"length"`
}

func newConfigCmd(opts *rootOptions) *cobra.Command {
	var showSalt bool
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Print the effective codec config for the entity type",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			entity := hashid.EntityType(strings.TrimSpace(opts.entity))
			if entity == "" {
				return hashid.ErrEmptyEntity
			}
			s, err := opts.settings()
			if err != nil {
				return err
			}
			r, err := hashid.NewResolver(s)
			if err != nil {
				return err
			}
			cc := r.Resolve(entity)
			_, override := s.Connections[string(entity)]

			salt := cc.Salt
			if !showSalt {
				salt = maskSalt(salt, string(entity))
			}
			return yaml.NewEncoder(cmd.OutOrStdout()).Encode(effectiveConfig{
				Entity:    string(entity),
				Default:   s.Default,
				Override:  override && string(entity) != s.Default,
				Driver:    cc.Driver,
				Salt:      salt,
				Alphabet:  cc.Alphabet,
				MinLength: cc.MinLength,
			})
		},
	}
	cmd.Flags().BoolVar(&showSalt, "show-salt", false, "print the salt in clear text")
	return cmd
}

// maskSalt 保留实体类型前缀，其余用 * 遮住
func maskSalt(salt, prefix string) string {
	if !strings.HasPrefix(salt, prefix) {
		return strings.Repeat("*", len(salt))
	}
	return prefix + strings.Repeat("*", len(salt)-len(prefix))
}
