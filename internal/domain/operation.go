package domain

// Operation 一笔已解析、可提交的结算操作。
// Accounts 是该操作影响到的资源引用（含程序引用之外的全部账户）；
// Data 是不透明负载，本模块只关心它的字节长度（尺寸核算）。
type Operation struct {
	Program  AccountRef
	Accounts []AccountRef
	Data     []byte
}

// References 返回该操作引用到的全部资源（程序引用 + 账户列表）
func (op *Operation) References() []AccountRef {
	refs := make([]AccountRef, 0, len(op.Accounts)+1)
	if op.Program != "" {
		refs = append(refs, op.Program)
	}
	refs = append(refs, op.Accounts...)
	return refs
}

// SubmissionID 一次批量提交的标识（由执行协作者返回）
type SubmissionID string

// OutcomeRecord 提交后的结局记录：结构化结果日志按提交顺序排列
type OutcomeRecord struct {
	ID   SubmissionID
	Logs []string
}
