package services

import "errors"

// ErrInvalidRequest 请求字段校验失败
var ErrInvalidRequest = errors.New("invalid request")
