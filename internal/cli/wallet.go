package cli

import (
	"encoding/hex"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dutchd/dutchd/internal/crypto"
)

// walletCmd generates a keypair for signing bid permits.
var walletCmd = &cobra.Command{
	Use:   "wallet-propose [seed]",
	Short: "Generate a keypair and its account id",
	Long: `Generate a secp256k1 keypair for signing token-bid permits. With a
seed argument the keypair is derived deterministically; without one it
is random.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var (
			keypair *crypto.Keypair
			err     error
		)
		if len(args) == 1 {
			keypair, err = crypto.NewKeypairFromSeed([]byte(args[0]))
		} else {
			keypair, err = crypto.NewKeypair()
		}
		if err != nil {
			return err
		}

		fmt.Printf("account_id: %s\n", keypair.AccountID())
		fmt.Printf("public_key: %s\n", hex.EncodeToString(keypair.PublicKey()))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(walletCmd)
}
