// Package types 定义 HTTP 接口的请求与响应结构，以及在服务层之间传递的调用方身份.
package types

import "strings"

// Principal 经过认证的调用方.
type Principal struct {
	UserID string   `json:"user_id"`
	Email  string   `json:"email,omitempty"`
	Name   string   `json:"name,omitempty"`
	Roles  []string `json:"roles,omitempty"`
	// Admin 由认证中间件按配置的管理员角色计算
	Admin bool `json:"admin"`
}

// NewPrincipal 创建调用方，roles 中包含 adminRole（大小写不敏感）时视为管理员.
func NewPrincipal(userID, email string, roles []string, adminRole string) *Principal {
	p := &Principal{UserID: strings.TrimSpace(userID), Email: strings.TrimSpace(email)}

	for _, r := range roles {
		r = strings.TrimSpace(r)
		if r == "" {
			continue
		}

		p.Roles = append(p.Roles, r)

		if adminRole != "" && strings.EqualFold(r, adminRole) {
			p.Admin = true
		}
	}

	return p
}

// Authenticated 判断是否有可用的用户标识.
func (p *Principal) Authenticated() bool {
	return p != nil && p.UserID != ""
}

// IsAdmin 判断是否为管理员.
func (p *Principal) IsAdmin() bool {
	return p != nil && p.Admin
}

// HasRole 判断是否拥有角色.
func (p *Principal) HasRole(role string) bool {
	if p == nil {
		return false
	}

	for _, r := range p.Roles {
		if strings.EqualFold(r, role) {
			return true
		}
	}

	return false
}

// CanModify 本人或管理员可以修改.
func (p *Principal) CanModify(ownerID string) bool {
	if !p.Authenticated() {
		return false
	}

	return p.IsAdmin() || (ownerID != "" && p.UserID == ownerID)
}
