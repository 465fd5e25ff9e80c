package vlcb

// ErrCode is the error octet of a command station ERR report.
type ErrCode uint8

const (
	ErrLocoStackFull    ErrCode = 1
	ErrLocoAddrTaken    ErrCode = 2
	ErrSessionMissing   ErrCode = 3
	ErrConsistEmpty     ErrCode = 4
	ErrLocoNotFound     ErrCode = 5
	ErrRxBufOverflow    ErrCode = 6
	ErrInvalidRequest   ErrCode = 7
	ErrSessionCancelled ErrCode = 8
)

// CmdErr is the error octet of a node CMDERR configuration report.
type CmdErr uint8

const (
	CmdErrCommandNotSupported CmdErr = 1
	CmdErrNotInLearnMode      CmdErr = 2
	CmdErrNotInSetupMode      CmdErr = 3
	CmdErrTooManyEvents       CmdErr = 4
	CmdErrNoEV                CmdErr = 5
	CmdErrInvalidEVIndex      CmdErr = 6
	CmdErrInvalidEvent        CmdErr = 7
	CmdErrInvalidParamIndex   CmdErr = 9
	CmdErrInvalidNVIndex      CmdErr = 10
	CmdErrInvalidEVValue      CmdErr = 11
	CmdErrInvalidNVValue      CmdErr = 12
)
