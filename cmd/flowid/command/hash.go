package command

import (
	"Go2FlowID/pkg/communityid"
	"fmt"

	"github.com/spf13/cobra"
)

type hashParams struct {
	srcIP   string
	srcPort uint16
	dstIP   string
	dstPort uint16
	proto   uint8
	seed    uint16
}

// newHashCommand returns the hash command, which fingerprints one flow.
func newHashCommand(global *globalParams) (cmd *cobra.Command) {
	params := &hashParams{}

	cmd = &cobra.Command{
		Use:   "hash",
		Short: "print the community ID of a single flow",
		Example: `  flowid hash --src-ip 1.2.3.4 --src-port 1122 --dst-ip 5.6.7.8 --dst-port 3344 --proto 6
  flowid hash --src-ip fe80::1 --dst-ip fe80::2 --src-port 128 --dst-port 0 --proto 58`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			seed := global.cfg.Seed()
			if cmd.Flags().Changed("seed") {
				seed = params.seed
			}
			id, err := communityid.New(seed).Fingerprint(params.srcIP, params.srcPort, params.dstIP, params.dstPort, params.proto)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), id)
			return nil
		},
	}

	cmd.Flags().StringVar(&params.srcIP, "src-ip", "", "source address")
	cmd.Flags().Uint16Var(&params.srcPort, "src-port", 0, "source port, or ICMP type")
	cmd.Flags().StringVar(&params.dstIP, "dst-ip", "", "destination address")
	cmd.Flags().Uint16Var(&params.dstPort, "dst-port", 0, "destination port, or ICMP code")
	cmd.Flags().Uint8Var(&params.proto, "proto", 0, "IP protocol number")
	cmd.Flags().Uint16Var(&params.seed, "seed", 0, "hash seed (overrides community_id.seed)")
	for _, name := range []string{"src-ip", "src-port", "dst-ip", "dst-port", "proto"} {
		if err := cmd.MarkFlagRequired(name); err != nil {
			panic(err)
		}
	}

	return cmd
}
