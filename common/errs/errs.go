package errs

// ErrorKind identifies a kind of internal error.
// fully support for errors.Is and errors.As.
type ErrorKind string

// Error satisfies the error interface and prints human-readable errors.
func (e ErrorKind) Error() string {
	return string(e)
}

// Generic kinds.
const (
	NotFound           = ErrorKind("not found")
	InternalError      = ErrorKind("internal error")
	InvalidArgument    = ErrorKind("invalid argument")
	Unsupported        = ErrorKind("unsupported")
	ConflictSetting    = ErrorKind("conflict setting")
	SomethingWentWrong = ErrorKind("something went wrong")
	Timeout            = ErrorKind("timeout")
	Overflow           = ErrorKind("arithmetic overflow")
)

// Authorization failures. Every signed operation checks the caller's role
// before touching state.
const (
	NotAnInvestor          = ErrorKind("not an investor")
	NotASeller             = ErrorKind("not a seller")
	NotAServicer           = ErrorKind("not a servicer")
	NotANotary             = ErrorKind("not a notary")
	NotATenant             = ErrorKind("not a tenant")
	NotARepresentative     = ErrorKind("not a representative")
	NotAHouseCouncilMember = ErrorKind("not a house council member")
	NotAnOwner             = ErrorKind("not an owner")
	NotTheTokenOwner       = ErrorKind("not the token owner")
	NotTheHouseOwner       = ErrorKind("not the house owner")
	OnlyForServicers       = ErrorKind("only for servicers")
	NotAnAdmin             = ErrorKind("not an admin")
	BadOrigin              = ErrorKind("bad origin")
)

// State precondition failures.
const (
	CollectionOrItemUnknown     = ErrorKind("collection or item unknown")
	NotAnAsset                  = ErrorKind("not an asset")
	AssetDoesNotExist           = ErrorKind("asset does not exist")
	HouseHasNotFinalisingStatus = ErrorKind("house has not finalising status")
	HouseHasNotFinalisedStatus  = ErrorKind("house has not finalised status")
	ReviewNeeded                = ErrorKind("review needed")
	VoteNeeded                  = ErrorKind("vote needed")
	CannotEditItem              = ErrorKind("cannot edit item")
	CannotSubmitItem            = ErrorKind("cannot submit item")
	NotAValidPayment            = ErrorKind("not a valid payment")
	NoRentToPay                 = ErrorKind("no rent to pay")
	TenantAssetNotLinked        = ErrorKind("tenant asset not linked")
	ReferendumCompleted         = ErrorKind("referendum completed")
	NotAValidReferendum         = ErrorKind("not a valid referendum")
	ProposalDoesNotExist        = ErrorKind("proposal does not exist")
	InvalidStatusTransition     = ErrorKind("invalid status transition")
)

// Resource failures.
const (
	NotAContributor                    = ErrorKind("not a contributor")
	NotEnoughToContribute              = ErrorKind("not enough to contribute")
	ContributionTooSmall               = ErrorKind("contribution too small")
	NotEnoughFundToWithdraw            = ErrorKind("not enough fund to withdraw")
	NotEnoughInTransferableForWithdraw = ErrorKind("not enough in transferable for withdraw")
	NotEnoughAvailableBalance          = ErrorKind("not enough available balance")
	InsufficientBalance                = ErrorKind("insufficient balance")
	RefundQueueFull                    = ErrorKind("refund queue full")
	MaximumNumberOfTenantsReached      = ErrorKind("maximum number of tenants reached")
	TotalMembersExceeded               = ErrorKind("total members exceeded")
	StorageOverflow                    = ErrorKind("storage overflow")
)

// Conflicts.
const (
	OneRoleAllowed          = ErrorKind("one role allowed per account")
	AlreadyWaiting          = ErrorKind("already waiting for approval")
	DuplicatePreimage       = ErrorKind("duplicate preimage")
	PaymentAlreadyInProcess = ErrorKind("payment already in process")
)

// Invariant violations.
const (
	FailedToCreateCollectiveProposal = ErrorKind("failed to create collective proposal")
	FailedToCreateProposal           = ErrorKind("failed to create proposal")
	MathError                        = ErrorKind("math error")
	NoneValue                        = ErrorKind("none value")
	InvalidValue                     = ErrorKind("invalid value")
)
