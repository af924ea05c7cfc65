package services

// Required-field failures map to one message per operation, so the struct
// tags only say what is required.

type CallFunctionArgs struct {
	ContractAddress string `json:"contract_address" validate:"required"`
	FunctionName    string `json:"function_name" validate:"required"`
	FunctionArgs    []any  `json:"function_args"`
	ABISource
}

type SendTransactionArgs struct {
	ContractAddress string `json:"contract_address" validate:"required"`
	FunctionName    string `json:"function_name" validate:"required"`
	FunctionArgs    []any  `json:"function_args"`
	Value           any    `json:"value"` // wei, number or decimal/hex string; defaults to 0
	ABISource
}

type GetEventsArgs struct {
	ContractAddress string   `json:"contract_address" validate:"required"`
	EventName       string   `json:"event_name" validate:"required"`
	FromBlock       BlockRef `json:"from_block"`
	ToBlock         BlockRef `json:"to_block"`
	ABISource
}

func (a SendTransactionArgs) callArgs() CallFunctionArgs {
	return CallFunctionArgs{
		ContractAddress: a.ContractAddress,
		FunctionName:    a.FunctionName,
		FunctionArgs:    a.FunctionArgs,
		ABISource:       a.ABISource,
	}
}
