package fund

import (
	"fmt"

	"github.com/quantfold/vault/internal/domain"
)

// AccessRegistry tracks the accounts allowed to perform privileged
// operations. Three capabilities exist: the owner (full control), the
// treasury manager (treasury account changes only) and whitelisted operators
// (strategy mutation, weight changes, capital deployment, redemption
// processing, fee collection and queue trimming). The owner satisfies every
// narrower check.
type AccessRegistry struct {
	owner           string
	treasuryManager string
	whitelist       map[string]struct{}
}

// NewAccessRegistry creates a registry with the given initial operators.
func NewAccessRegistry(owner, treasuryManager string, operators []string) *AccessRegistry {
	whitelist := make(map[string]struct{}, len(operators))
	for _, op := range operators {
		if op != "" {
			whitelist[op] = struct{}{}
		}
	}
	return &AccessRegistry{
		owner:           owner,
		treasuryManager: treasuryManager,
		whitelist:       whitelist,
	}
}

// IsOwner reports whether account is the fund owner.
func (a *AccessRegistry) IsOwner(account string) bool {
	return account != "" && account == a.owner
}

// CanManageTreasury reports whether account may change the treasury account.
func (a *AccessRegistry) CanManageTreasury(account string) bool {
	return a.IsOwner(account) || (account != "" && account == a.treasuryManager)
}

// IsWhitelisted reports whether account holds the operator capability.
func (a *AccessRegistry) IsWhitelisted(account string) bool {
	if a.IsOwner(account) {
		return true
	}
	_, ok := a.whitelist[account]
	return ok
}

// Whitelist grants the operator capability. Owner only.
func (a *AccessRegistry) Whitelist(caller, account string) error {
	if !a.IsOwner(caller) {
		return fmt.Errorf("%w: %s may not manage the whitelist", domain.ErrUnauthorized, caller)
	}
	if account == "" {
		return fmt.Errorf("%w: empty operator account", domain.ErrInvalidArgument)
	}
	a.whitelist[account] = struct{}{}
	return nil
}

// Unwhitelist revokes the operator capability. Owner only.
func (a *AccessRegistry) Unwhitelist(caller, account string) error {
	if !a.IsOwner(caller) {
		return fmt.Errorf("%w: %s may not manage the whitelist", domain.ErrUnauthorized, caller)
	}
	delete(a.whitelist, account)
	return nil
}
