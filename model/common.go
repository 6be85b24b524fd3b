package model

type CommonParam struct {
	Operator uint64
	Role     int8
}

type CommonParamInterface interface {
	SetOperator(op uint64)
	SetRole(role int8)
}

func (p *CommonParam) SetOperator(op uint64) {
	p.Operator = op
}

func (p *CommonParam) SetRole(role int8) {
	p.Role = role
}

const (
	RoleUser  int8 = 0
	RoleAdmin int8 = 1
)
