package cadence

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/socialfi-labs/token-worker/internal/job"
)

// Template is the script source and declared argument schema for one job
// type. Sources reference contracts through 0xNAME placeholders which Resolve
// substitutes per network, so one source runs unmodified everywhere.
type Template struct {
	Name   string
	Source string
	Schema []Kind
}

// contractAddresses is the static name→address table per network.
var contractAddresses = map[string]map[string]string{
	"mainnet": {
		"FungibleToken": "0xf233dcee88fe0abe",
		"SocialToken":   "0x8c5303eaa26202d6",
	},
	"testnet": {
		"FungibleToken": "0x9a0766d93b6608b7",
		"SocialToken":   "0x82ec283f88a62e65",
	},
	"emulator": {
		"FungibleToken": "0xee82856bf20e2aa6",
		"SocialToken":   "0xf8d6e0586b0a20c7",
	},
}

var (
	placeholderPattern = regexp.MustCompile(`0x([A-Z][A-Za-z]*)`)
	importPattern      = regexp.MustCompile(`import\s+(\w+)\s+from\s+(0x[0-9a-f]{16})`)
)

// Resolve substitutes every symbolic contract reference in the source with
// the concrete address for the given network. Both the 0xNAME placeholder
// form and legacy hardcoded `import Name from 0x...` addresses are rewritten.
func (t *Template) Resolve(network string) (string, error) {
	table, ok := contractAddresses[network]
	if !ok {
		return "", fmt.Errorf("unknown network %q", network)
	}

	var missing string
	src := placeholderPattern.ReplaceAllStringFunc(t.Source, func(m string) string {
		name := strings.TrimPrefix(m, "0x")
		addr, ok := table[name]
		if !ok {
			missing = name
			return m
		}
		return addr
	})
	if missing != "" {
		return "", fmt.Errorf("no %s address for contract %q in template %s", network, missing, t.Name)
	}

	// Legacy sources carry addresses from whatever network they were written
	// against; pin them to the target network's table.
	src = importPattern.ReplaceAllStringFunc(src, func(m string) string {
		parts := importPattern.FindStringSubmatch(m)
		if addr, ok := table[parts[1]]; ok {
			return "import " + parts[1] + " from " + addr
		}
		return m
	})

	return src, nil
}

// TemplateFor returns the template for a job type.
func TemplateFor(t job.Type) (*Template, bool) {
	tmpl, ok := templates[t]
	return tmpl, ok
}

var templates = map[job.Type]*Template{
	job.TypeSetup: {
		Name:   "setup_account",
		Schema: []Kind{KindAddress},
		Source: `import FungibleToken from 0xFungibleToken
import SocialToken from 0xSocialToken

transaction(account: Address) {
    prepare(signer: AuthAccount) {
        if signer.borrow<&SocialToken.Vault>(from: SocialToken.VaultStoragePath) == nil {
            signer.save(<-SocialToken.createEmptyVault(), to: SocialToken.VaultStoragePath)
            signer.link<&SocialToken.Vault{FungibleToken.Receiver}>(
                SocialToken.ReceiverPublicPath,
                target: SocialToken.VaultStoragePath
            )
            signer.link<&SocialToken.Vault{FungibleToken.Balance}>(
                SocialToken.BalancePublicPath,
                target: SocialToken.VaultStoragePath
            )
        }
    }
}`,
	},
	job.TypeMint: {
		Name:   "mint_tokens",
		Schema: []Kind{KindAddress, KindUFix64},
		Source: `import FungibleToken from 0xFungibleToken
import SocialToken from 0xSocialToken

transaction(recipient: Address, amount: UFix64) {
    let minter: &SocialToken.Minter

    prepare(signer: AuthAccount) {
        self.minter = signer.borrow<&SocialToken.Minter>(from: SocialToken.MinterStoragePath)
            ?? panic("Could not borrow minter reference")
    }

    execute {
        let receiver = getAccount(recipient)
            .getCapability(SocialToken.ReceiverPublicPath)
            .borrow<&{FungibleToken.Receiver}>()
            ?? panic("Could not borrow receiver reference")
        self.minter.mintTokens(amount: amount, recipient: receiver)
    }
}`,
	},
	job.TypeTransfer: {
		Name:   "admin_transfer",
		Schema: []Kind{KindAddress, KindAddress, KindUFix64},
		Source: `import FungibleToken from 0xFungibleToken
import SocialToken from 0xSocialToken

transaction(sender: Address, recipient: Address, amount: UFix64) {
    let admin: &SocialToken.Administrator

    prepare(signer: AuthAccount) {
        self.admin = signer.borrow<&SocialToken.Administrator>(from: SocialToken.AdminStoragePath)
            ?? panic("Could not borrow admin reference")
    }

    execute {
        self.admin.transferTokens(from: sender, to: recipient, amount: amount)
    }
}`,
	},
	job.TypeBurn: {
		Name:   "burn_tokens",
		Schema: []Kind{KindUFix64},
		Source: `import FungibleToken from 0xFungibleToken
import SocialToken from 0xSocialToken

transaction(amount: UFix64) {
    let admin: &SocialToken.Administrator
    let vault: &SocialToken.Vault

    prepare(signer: AuthAccount) {
        self.admin = signer.borrow<&SocialToken.Administrator>(from: SocialToken.AdminStoragePath)
            ?? panic("Could not borrow admin reference")
        self.vault = signer.borrow<&SocialToken.Vault>(from: SocialToken.VaultStoragePath)
            ?? panic("Could not borrow vault reference")
    }

    execute {
        self.admin.burnTokens(from: <-self.vault.withdraw(amount: amount))
    }
}`,
	},
	job.TypePause: {
		Name:   "pause_contract",
		Schema: []Kind{},
		Source: `import SocialToken from 0xSocialToken

transaction {
    prepare(signer: AuthAccount) {
        let admin = signer.borrow<&SocialToken.Administrator>(from: SocialToken.AdminStoragePath)
            ?? panic("Could not borrow admin reference")
        admin.pause()
    }
}`,
	},
	job.TypeUnpause: {
		Name:   "unpause_contract",
		Schema: []Kind{},
		Source: `import SocialToken from 0xSocialToken

transaction {
    prepare(signer: AuthAccount) {
        let admin = signer.borrow<&SocialToken.Administrator>(from: SocialToken.AdminStoragePath)
            ?? panic("Could not borrow admin reference")
        admin.unpause()
    }
}`,
	},
	job.TypeSetTaxRate: {
		Name:   "set_tax_rate",
		Schema: []Kind{KindUFix64},
		Source: `import SocialToken from 0xSocialToken

transaction(newTaxRate: UFix64) {
    prepare(signer: AuthAccount) {
        let admin = signer.borrow<&SocialToken.Administrator>(from: SocialToken.AdminStoragePath)
            ?? panic("Could not borrow admin reference")
        admin.setTaxRate(rate: newTaxRate)
    }
}`,
	},
	job.TypeSetTreasury: {
		Name:   "set_treasury",
		Schema: []Kind{KindAddress},
		Source: `import SocialToken from 0xSocialToken

transaction(newTreasury: Address) {
    prepare(signer: AuthAccount) {
        let admin = signer.borrow<&SocialToken.Administrator>(from: SocialToken.AdminStoragePath)
            ?? panic("Could not borrow admin reference")
        admin.setTreasury(account: newTreasury)
    }
}`,
	},
	job.TypeBatchTransfer: {
		Name:   "batch_transfer",
		Schema: []Kind{KindAddress, KindAddressArray, KindUFix64Array},
		Source: `import FungibleToken from 0xFungibleToken
import SocialToken from 0xSocialToken

transaction(sender: Address, recipients: [Address], amounts: [UFix64]) {
    let admin: &SocialToken.Administrator

    prepare(signer: AuthAccount) {
        self.admin = signer.borrow<&SocialToken.Administrator>(from: SocialToken.AdminStoragePath)
            ?? panic("Could not borrow admin reference")
    }

    execute {
        var i = 0
        while i < recipients.length {
            self.admin.transferTokens(from: sender, to: recipients[i], amount: amounts[i])
            i = i + 1
        }
    }
}`,
	},
}
