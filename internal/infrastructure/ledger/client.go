package ledger

import (
	"context"
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/tomland123/keeper-bots-v2/internal/domain"
)

var log = logrus.WithField("component", "ledger_client")

// 成交操作的负载编码（操作码 + 订单定位信息）
const (
	opFillOrder byte = 0x0c
	// preambleData 前导操作（计算预算声明）的固定负载
	preambleUnits uint32 = 1_400_000
)

// Client 通过 JSON-RPC 与远端账本节点交互的执行协作者实现。
// 负责传输层：构建操作、批量提交、取回结局记录。签名与密钥管理在节点侧完成。
type Client struct {
	http      *resty.Client
	submitter domain.AccountRef
	program   domain.AccountRef
	preamble  domain.AccountRef // 前导操作的程序引用
}

// Option 客户端可选项
type Option func(*Client)

// WithTimeout 设置单请求超时
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http.SetTimeout(d) }
}

// NewClient 创建账本客户端
func NewClient(endpoint string, submitter, program domain.AccountRef, opts ...Option) *Client {
	c := &Client{
		http: resty.New().
			SetBaseURL(endpoint).
			SetTimeout(20 * time.Second).
			SetHeader("Content-Type", "application/json"),
		submitter: submitter,
		program:   program,
		preamble:  "ComputeBudget111111111111111111111111111111",
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SubmitterIdentity 提交者自身的资源引用
func (c *Client) SubmitterIdentity() domain.AccountRef { return c.submitter }

// PreambleOperation 每次提交强制携带的计算预算前导操作
func (c *Client) PreambleOperation() *domain.Operation {
	data := make([]byte, 5)
	data[0] = 0x02
	binary.LittleEndian.PutUint32(data[1:], preambleUnits)
	return &domain.Operation{
		Program: c.preamble,
		Data:    data,
	}
}

// BuildFillOperation 将候选与成交元数据解析为一笔具体的结算操作
func (c *Client) BuildFillOperation(_ context.Context, info *domain.FillInfo) (*domain.Operation, error) {
	if info == nil || info.Candidate == nil {
		return nil, errors.New("nil fill info")
	}
	cand := info.Candidate

	accounts := make([]domain.AccountRef, 0, 8)
	accounts = append(accounts, c.submitter)
	if cand.Account != "" {
		accounts = append(accounts, cand.Account)
	}
	if info.TakerOwner != "" {
		accounts = append(accounts, info.TakerOwner)
	}
	if cand.Maker != nil {
		accounts = append(accounts, cand.Maker.Account)
		if info.MakerOwner != "" {
			accounts = append(accounts, info.MakerOwner)
		}
	}
	if info.Referrer != nil {
		accounts = append(accounts, info.Referrer.Referrer, info.Referrer.ReferrerStats)
	}

	data := make([]byte, 1+4+2)
	data[0] = opFillOrder
	binary.LittleEndian.PutUint32(data[1:], uint32(cand.Order))
	binary.LittleEndian.PutUint16(data[5:], uint16(cand.Market))

	return &domain.Operation{
		Program:  c.program,
		Accounts: accounts,
		Data:     data,
	}, nil
}

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      int    `json:"id"`
	Method  string `json:"method"`
	Params  any    `json:"params"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    struct {
		Logs []string `json:"logs"`
	} `json:"data"`
}

type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *rpcError       `json:"error"`
}

type wireOperation struct {
	Program  string   `json:"program"`
	Accounts []string `json:"accounts"`
	Data     string   `json:"data"` // base64
}

// Submit 原子提交一批操作；失败返回 *domain.TransportError 并带上原始诊断行
func (c *Client) Submit(ctx context.Context, ops []*domain.Operation) (domain.SubmissionID, error) {
	wire := make([]wireOperation, len(ops))
	for i, op := range ops {
		accounts := make([]string, len(op.Accounts))
		for j, a := range op.Accounts {
			accounts[j] = string(a)
		}
		wire[i] = wireOperation{
			Program:  string(op.Program),
			Accounts: accounts,
			Data:     base64.StdEncoding.EncodeToString(op.Data),
		}
	}

	resp, err := c.call(ctx, "sendBatch", []any{wire})
	if err != nil {
		return "", err
	}

	var id string
	if err := json.Unmarshal(resp, &id); err != nil {
		return "", &domain.TransportError{Op: "submit", Err: errors.Wrap(err, "decode submission id")}
	}
	return domain.SubmissionID(id), nil
}

// FetchOutcome 取回结局记录；节点尚未确认时返回 (nil, nil)
func (c *Client) FetchOutcome(ctx context.Context, id domain.SubmissionID) (*domain.OutcomeRecord, error) {
	resp, err := c.call(ctx, "getOutcome", []any{string(id)})
	if err != nil {
		return nil, err
	}
	if string(resp) == "null" {
		return nil, nil
	}

	var out struct {
		Logs []string `json:"logs"`
	}
	if err := json.Unmarshal(resp, &out); err != nil {
		return nil, &domain.TransportError{Op: "fetch_outcome", Err: errors.Wrap(err, "decode outcome record")}
	}
	return &domain.OutcomeRecord{ID: id, Logs: out.Logs}, nil
}

func (c *Client) call(ctx context.Context, method string, params any) (json.RawMessage, error) {
	var body rpcResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(rpcRequest{JSONRPC: "2.0", ID: 1, Method: method, Params: params}).
		SetResult(&body).
		Post("/")
	if err != nil {
		return nil, &domain.TransportError{Op: method, Err: err}
	}
	if resp.IsError() {
		return nil, &domain.TransportError{Op: method, Err: errors.Errorf("http status %s", resp.Status())}
	}
	if body.Error != nil {
		log.WithFields(logrus.Fields{
			"method": method,
			"code":   body.Error.Code,
		}).Debug("rpc error response")
		return nil, &domain.TransportError{
			Op:   method,
			Logs: body.Error.Data.Logs,
			Err:  errors.Errorf("rpc error %d: %s", body.Error.Code, body.Error.Message),
		}
	}
	return body.Result, nil
}
