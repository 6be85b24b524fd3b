package web

import "github.com/gin-gonic/gin"

// Handler 向 Gin 引擎注册路由的处理器
type Handler interface {
	Register(r *gin.Engine)
}

type GinServer struct {
	Engine *gin.Engine
	Addr   string
}

func (s *GinServer) Start() error {
	return s.Engine.Run(s.Addr)
}
