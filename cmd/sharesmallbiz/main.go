// Package main 启动应用程序
package main

import (
	"os"

	"github.com/yeisme/sharesmallbiz/pkg/cmd"
)

//	@title			ShareSmallBiz API
//	@version		1.0
//	@description	ShareSmallBiz 小企业社区门户：讨论与评论、关键词、用户资料与关注、媒体库（上传、外链、YouTube、Unsplash）及 /Media/{id} 内容分发。

//	@license.name	MIT
//	@license.url	https://opensource.org/license/mit/

//	@contact.name	yeisme
//	@contact.email	yefun2004@gmail.com.

//	@BasePath	/

//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
