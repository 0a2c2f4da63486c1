// Package all 匿名导入全部内置组件，使其在 init() 中完成注册。
package all

import (
	_ "github.com/redroid-script/rds/internal/component/litegapps"
	_ "github.com/redroid-script/rds/internal/component/mindthegapps"
	_ "github.com/redroid-script/rds/internal/component/ndk"
	_ "github.com/redroid-script/rds/internal/component/opengapps"
	_ "github.com/redroid-script/rds/internal/component/widevine"
)
