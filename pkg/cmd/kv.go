package cmd

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/yeisme/sharesmallbiz/pkg/cache"
	"github.com/yeisme/sharesmallbiz/pkg/configs"
	kv "github.com/yeisme/sharesmallbiz/pkg/internal/storage/kv"
)

var (
	kvCmd = &cobra.Command{
		Use:     "kv",
		Short:   "Key-Value store related commands",
		Aliases: []string{"keyvalue"},
	}

	kvListCmd = &cobra.Command{
		Use:     "list",
		Short:   "list all registered kv types",
		Aliases: []string{"ls", "l"},
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "Registered kv types:")

			for _, t := range kv.GetRegisteredKVTypes() {
				fmt.Fprintln(cmd.OutOrStdout(), "   - "+string(t))
			}
		},
	}

	// 列出缓存键，例如 keywords import 之后检查 ssb:keywords:*.
	kvKeysCmd = &cobra.Command{
		Use:   "keys [pattern]",
		Short: "list cached keys in the configured kv store",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withKV(cmd, func(store *kv.Client) error {
				pattern := "*"
				if len(args) == 1 {
					pattern = args[0]
				}

				keys, err := store.Keys(cmd.Context(), pattern)
				if err != nil {
					return err
				}

				sort.Strings(keys)

				for _, k := range keys {
					fmt.Fprintln(cmd.OutOrStdout(), k)
				}

				return nil
			})
		},
	}

	kvDelCmd = &cobra.Command{
		Use:   "del <key>...",
		Short: "delete keys from the configured kv store",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withKV(cmd, func(store *kv.Client) error {
				for _, k := range args {
					if err := store.Delete(cmd.Context(), k); err != nil {
						return err
					}
				}

				return nil
			})
		},
	}

	// 清空应用缓存，不影响同一存储中其它前缀的键.
	kvFlushCmd = &cobra.Command{
		Use:   "flush",
		Short: "delete every application cache entry (" + cache.DefaultNamespace + ":*)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withKV(cmd, func(store *kv.Client) error {
				n, err := cache.NewCache(store, cache.DefaultNamespace).Clear(cmd.Context())
				fmt.Fprintf(cmd.OutOrStdout(), "removed %d keys\n", n)

				return err
			})
		},
	}
)

func withKV(cmd *cobra.Command, fn func(*kv.Client) error) error {
	if _, err := loadConfig(); err != nil {
		return err
	}

	store, err := kv.NewKVClientWithConfig(cmd.Context(), &configs.GetConfig().KV)
	if err != nil {
		return err
	}
	defer store.Close()

	return fn(store)
}

// registerKVCommands 注册 KV 相关命令.
func registerKVCommands() {
	rootCmd.AddCommand(kvCmd)
	kvCmd.AddCommand(kvListCmd)
	kvCmd.AddCommand(kvKeysCmd)
	kvCmd.AddCommand(kvDelCmd)
	kvCmd.AddCommand(kvFlushCmd)
}
