package chain

import (
	"github.com/fair-squares/go-fairsquares/modules/bidding"
	"github.com/fair-squares/go-fairsquares/modules/collective"
	"github.com/fair-squares/go-fairsquares/modules/housingfund"
	"github.com/fair-squares/go-fairsquares/modules/management"
	"github.com/fair-squares/go-fairsquares/modules/onboarding"
	"github.com/fair-squares/go-fairsquares/modules/roles"
	"github.com/fair-squares/go-fairsquares/modules/share"
	"github.com/fair-squares/go-fairsquares/modules/tenancy"
	"github.com/fair-squares/go-fairsquares/modules/voting"
	"github.com/fair-squares/go-fairsquares/pkg/fixedmath"
)

// Params bundles every pallet's configuration.
type Params struct {
	Roles      roles.Params
	Collective collective.Params
	Fund       housingfund.Params
	Onboarding onboarding.Params
	Voting     voting.Params
	Bidding    bidding.Params
	Share      share.Params
	Tenancy    tenancy.Params
	Management management.Params
}

// DefaultParams returns the reference configuration. Periods are short so a
// full lifecycle fits in a few dozen blocks.
func DefaultParams() Params {
	const (
		motionDuration = 20
		votingPeriod   = 20
		delay          = 5
		checkPeriod    = 5
	)
	return Params{
		Roles: roles.Params{
			MaxMembers: 300,
			MaxRoles:   3,
		},
		Collective: collective.Params{
			MotionDuration: motionDuration,
		},
		Fund: housingfund.Params{
			MinContribution: 1_000,
		},
		Onboarding: onboarding.Params{
			ProposalFee: fixedmath.FromPercent(10),
			SlashedFee:  fixedmath.FromPercent(10),
		},
		Voting: voting.Params{
			CheckPeriod:        checkPeriod,
			Delay:              delay,
			VotingPeriod:       votingPeriod,
			MotionDuration:     motionDuration,
			MinimumDepositVote: 100,
		},
		Bidding: bidding.Params{
			NewAssetScanPeriod: checkPeriod,
			MinShare:           fixedmath.FromPercent(10),
			MaxShare:           fixedmath.FromPercent(70),
		},
		Share: share.Params{
			Fees: 1_000,
		},
		Tenancy: tenancy.Params{
			Lease:    12,
			Guaranty: 3,
			RoR:      fixedmath.FromPercent(3),
		},
		Management: management.Params{
			CheckPeriod:    checkPeriod,
			RentCheck:      10,
			VotingPeriod:   votingPeriod,
			Delay:          delay,
			MinimumDeposit: 500,
			Maintenance:    fixedmath.FromPercent(5),
			Lease:          12,
			ContractLength: 525_600, // one year of 60-second blocks
		},
	}
}
