package chain

const (
	// TxGas per transaction not creating a contract
	TxGas uint64 = 21000
	// TxGasContractCreation per transaction that creates a contract
	TxGasContractCreation uint64 = 53000
	// TxDataZeroGas per byte of transaction data that equals zero
	TxDataZeroGas uint64 = 4
	// TxDataNonZeroGas per byte of transaction data that is not zero
	TxDataNonZeroGas uint64 = 68
)

// GasTable stores the gas cost for the variable opcodes
type GasTable struct {
	ExtcodeSize     uint64
	ExtcodeCopy     uint64
	ExtcodeHash     uint64
	Balance         uint64
	SLoad           uint64
	Calls           uint64
	Suicide         uint64
	ExpByte         uint64
	CreateBySuicide uint64
}

// GasTableHomestead contains the gas prices of the frontier/homestead
// phase, before the io-heavy opcodes were repriced
var GasTableHomestead = GasTable{
	ExtcodeSize: 20,
	ExtcodeCopy: 20,
	Balance:     20,
	SLoad:       50,
	Calls:       40,
	Suicide:     0,
	ExpByte:     10,
}

// GasTableEIP150 contains the repriced costs for state-reading opcodes
var GasTableEIP150 = GasTable{
	ExtcodeSize:     700,
	ExtcodeCopy:     700,
	ExtcodeHash:     400,
	Balance:         400,
	SLoad:           200,
	Calls:           700,
	Suicide:         5000,
	ExpByte:         10,
	CreateBySuicide: 25000,
}

// GasTableDefault is the schedule the executor uses unless overridden
var GasTableDefault = GasTable{
	ExtcodeSize:     700,
	ExtcodeCopy:     700,
	ExtcodeHash:     400,
	Balance:         400,
	SLoad:           200,
	Calls:           700,
	Suicide:         5000,
	ExpByte:         50,
	CreateBySuicide: 25000,
}
