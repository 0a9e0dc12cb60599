package domain

// Identity 是 Identity Store 中保存的设备会话身份。
// 设备令牌在注册时签发，后续请求凭令牌解析出用户。
type Identity struct {
	UserID uint   `json:"user_id"`
	Name   string `json:"name"`
}
