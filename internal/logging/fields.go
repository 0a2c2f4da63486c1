package logging

import "github.com/sirupsen/logrus"

// BaseFields 构建 action + 配置路径等基础字段，便于不同入口复用。
func BaseFields(action, configPath string) logrus.Fields {
	return logrus.Fields{
		"action":     action,
		"configPath": configPath,
	}
}

// FetchFields 提供 url/checksum 字段，下载与缓存日志都以此定位具体资源。
func FetchFields(url, checksum string) logrus.Fields {
	return logrus.Fields{
		"url":      url,
		"checksum": checksum,
	}
}

// ComponentFields 描述正在安装的组件及目标平台。
func ComponentFields(runID, kind, android, arch string) logrus.Fields {
	return logrus.Fields{
		"run_id":    runID,
		"component": kind,
		"android":   android,
		"arch":      arch,
	}
}
